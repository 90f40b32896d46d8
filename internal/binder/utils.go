package binder

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kestrun/kestrun/schema"
)

// coerceStringToScalarKind parses a raw request string towards the
// declared scalar kind, per §4.3 step 4. Unparseable input yields (nil,
// nil) rather than an error: the binder records a null, it does not fail
// the request for a single malformed scalar.
func coerceStringToScalarKind(input string, kind schema.ScalarKind) (any, error) {
	switch kind {
	case schema.ScalarInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err != nil {
			return nil, nil
		}

		return i, nil
	case schema.ScalarNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return nil, nil
		}

		return f, nil
	case schema.ScalarBoolean:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(input)))
		if err != nil {
			return nil, nil
		}

		return b, nil
	case schema.ScalarObject:
		var result any
		if err := json.Unmarshal([]byte(input), &result); err != nil {
			return nil, nil
		}

		return result, nil
	case schema.ScalarUUID:
		// Validated the same way as the teacher's
		// convertTypePresentationFromString's *schema.TypeRepresentationUUID
		// case: uuid.Parse only checks the representation is well-formed,
		// the original string (not the parsed uuid.UUID) is what's bound.
		if _, err := uuid.Parse(strings.TrimSpace(input)); err != nil {
			return nil, nil
		}

		return input, nil
	default:
		return input, nil
	}
}

// lookupCaseInsensitiveString finds a single-valued map entry by
// case-insensitive key match, used for path and cookie lookups (§4.3
// step 1).
func lookupCaseInsensitiveString(values map[string]string, name string) (string, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}

	for k, v := range values {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}

	return "", false
}

// lookupCaseInsensitiveSlice finds a multi-valued map entry by
// case-insensitive key match, used for query and header lookups (§4.3
// step 1).
func lookupCaseInsensitiveSlice(values map[string][]string, name string) ([]string, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}

	for k, v := range values {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}

	return nil, false
}
