package contenttype

import (
	"strings"
	"testing"

	"github.com/kestrun/kestrun/schema"
	"gotest.tools/v3/assert"
)

func TestYAMLDecodeObject(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Person": {
			Fields: map[string]schema.ObjectField{
				"name": {Type: schema.NewNamedType(string(schema.ScalarString))},
				"age":  {Type: schema.NewNamedType(string(schema.ScalarInteger))},
			},
		},
	}

	decoder := NewYAMLDecoder(objects)

	body := strings.NewReader("name: Ada\nage: 30\n")
	result, err := decoder.Decode(body, schema.NewNamedType("Person"))
	assert.NilError(t, err)

	m, ok := result.(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, m["name"], "Ada")
	assert.Equal(t, m["age"], int64(30))
}
