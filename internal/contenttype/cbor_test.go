package contenttype

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/kestrun/kestrun/schema"
	"gotest.tools/v3/assert"
)

func TestCBORDecodeObject(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Person": {
			Fields: map[string]schema.ObjectField{
				"name": {Type: schema.NewNamedType(string(schema.ScalarString))},
				"age":  {Type: schema.NewNamedType(string(schema.ScalarInteger))},
			},
		},
	}

	raw, err := cbor.Marshal(map[string]any{"name": "Ada", "age": int64(30)})
	assert.NilError(t, err)

	decoder := NewCBORDecoder(objects)
	result, err := decoder.Decode(bytes.NewReader(raw), schema.NewNamedType("Person"))
	assert.NilError(t, err)

	m, ok := result.(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, m["name"], "Ada")
	assert.Equal(t, m["age"], int64(30))
}
