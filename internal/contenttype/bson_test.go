package contenttype

import (
	"bytes"
	"testing"

	"github.com/kestrun/kestrun/schema"
	"go.mongodb.org/mongo-driver/bson"
	"gotest.tools/v3/assert"
)

func TestBSONDecodeObject(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Person": {
			Fields: map[string]schema.ObjectField{
				"name": {Type: schema.NewNamedType(string(schema.ScalarString))},
				"age":  {Type: schema.NewNamedType(string(schema.ScalarInteger))},
			},
		},
	}

	raw, err := bson.Marshal(bson.M{"name": "Ada", "age": int32(30)})
	assert.NilError(t, err)

	decoder := NewBSONDecoder(objects)
	result, err := decoder.Decode(bytes.NewReader(raw), schema.NewNamedType("Person"))
	assert.NilError(t, err)

	m, ok := result.(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, m["name"], "Ada")
	assert.Equal(t, m["age"], int64(30))
}
