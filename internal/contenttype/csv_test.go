package contenttype

import (
	"strings"
	"testing"

	"github.com/kestrun/kestrun/schema"
	"gotest.tools/v3/assert"
)

func TestCSVDecodeRowsAsObjects(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Row": {
			Fields: map[string]schema.ObjectField{
				"name": {Type: schema.NewNamedType(string(schema.ScalarString))},
				"age":  {Type: schema.NewNamedType(string(schema.ScalarInteger))},
			},
		},
	}

	decoder := NewCSVDecoder(objects)

	body := strings.NewReader("name,age\nAda,30\nGrace,85\n")
	result, err := decoder.Decode(body, schema.NewArrayType(schema.NewNamedType("Row")))
	assert.NilError(t, err)

	rows, ok := result.([]any)
	assert.Assert(t, ok)
	assert.Equal(t, len(rows), 2)

	first, ok := rows[0].(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, first["name"], "Ada")
	assert.Equal(t, first["age"], int64(30))
}
