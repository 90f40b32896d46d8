package contenttype

import (
	"encoding/json"
)

// EncodeArbitraryJSON serializes value to JSON without a declared schema,
// used by the response adapter (C7) to render a postponed write whose
// recorded media type is application/json and whose payload is already a
// plain Go value (the guest script's return value, not a decoded request
// body), so no schema.Type is available to conform against.
func EncodeArbitraryJSON(value any) ([]byte, error) {
	return json.Marshal(value)
}
