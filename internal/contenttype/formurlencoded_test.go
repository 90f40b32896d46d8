package contenttype

import (
	"strings"
	"testing"

	"github.com/kestrun/kestrun/schema"
	"gotest.tools/v3/assert"
)

func TestFormURLEncodedDecodeScalarFields(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Signup": {
			Fields: map[string]schema.ObjectField{
				"name":   {Type: schema.NewNamedType(string(schema.ScalarString))},
				"age":    {Type: schema.NewNamedType(string(schema.ScalarInteger))},
				"active": {Type: schema.NewNamedType(string(schema.ScalarBoolean))},
			},
		},
	}

	decoder := NewFormURLEncodedDecoder(objects)

	body := strings.NewReader("name=Ada&age=30&active=true")
	result, err := decoder.Decode(body, schema.NewNamedType("Signup"))
	assert.NilError(t, err)

	m, ok := result.(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, m["name"], "Ada")
	assert.Equal(t, m["age"], int64(30))
	assert.Equal(t, m["active"], true)
}

func TestFormURLEncodedDecodeBracketArray(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Filter": {
			Fields: map[string]schema.ObjectField{
				"tags": {Type: schema.NewArrayType(schema.NewNamedType(string(schema.ScalarString)))},
			},
		},
	}

	decoder := NewFormURLEncodedDecoder(objects)

	body := strings.NewReader("tags[0]=a&tags[1]=b")
	result, err := decoder.Decode(body, schema.NewNamedType("Filter"))
	assert.NilError(t, err)

	m, ok := result.(map[string]any)
	assert.Assert(t, ok)
	tags, ok := m["tags"].([]any)
	assert.Assert(t, ok)
	assert.DeepEqual(t, tags, []any{"a", "b"})
}
