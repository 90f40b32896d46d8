package contenttype

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/kestrun/kestrun/schema"
	"gotest.tools/v3/assert"
)

func buildMultipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	buf := new(bytes.Buffer)
	writer := multipart.NewWriter(buf)
	for name, value := range fields {
		w, err := writer.CreateFormField(name)
		assert.NilError(t, err)
		_, err = w.Write([]byte(value))
		assert.NilError(t, err)
	}
	assert.NilError(t, writer.Close())

	return buf, writer.Boundary()
}

func TestMultipartParsePartsAndBind(t *testing.T) {
	buf, boundary := buildMultipartBody(t, map[string]string{
		"name":  "Ada",
		"extra": "unmatched",
	})

	parts, err := ParseParts(multipart.NewReader(buf, boundary), 1<<20)
	assert.NilError(t, err)
	assert.Equal(t, len(parts), 2)

	objects := map[string]schema.ObjectType{
		"Upload": {
			Fields: map[string]schema.ObjectField{
				"name": {Type: schema.NewNamedType(string(schema.ScalarString))},
			},
		},
	}

	decoder := NewMultipartFormDecoder(objects)
	result, err := decoder.Bind(parts, schema.NewNamedType("Upload"))
	assert.NilError(t, err)
	assert.Equal(t, result["name"], "Ada")

	additional, ok := result["__additionalProperties"].(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, additional["extra"], "unmatched")
}

func TestMultipartBindWithPartAttribute(t *testing.T) {
	buf, boundary := buildMultipartBody(t, map[string]string{
		"file_link_data": "42",
	})

	parts, err := ParseParts(multipart.NewReader(buf, boundary), 1<<20)
	assert.NilError(t, err)

	objects := map[string]schema.ObjectType{
		"Upload": {
			Fields: map[string]schema.ObjectField{
				"linkData": {
					Type:          schema.NewNamedType(string(schema.ScalarInteger)),
					PartAttribute: "file_link_data",
				},
			},
		},
	}

	decoder := NewMultipartFormDecoder(objects)
	result, err := decoder.Bind(parts, schema.NewNamedType("Upload"))
	assert.NilError(t, err)
	assert.DeepEqual(t, result["linkData"], float64(42))
}
