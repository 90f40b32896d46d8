package contenttype

import (
	"strings"
	"testing"

	"github.com/kestrun/kestrun/schema"
	"gotest.tools/v3/assert"
)

func TestDecodeXMLArbitraryTree(t *testing.T) {
	testCases := []struct {
		Name     string
		Body     string
		Expected map[string]any
	}{
		{
			Name: "nested elements and attributes",
			Body: `<collection><project name="home:Admin"><title></title><description></description><person userid="Admin" role="maintainer"/><repository name="openSUSE_Tumbleweed"><path project="openSUSE.org:openSUSE:Factory" repository="snapshot"/><arch>x86_64</arch></repository></project></collection>`,
			Expected: map[string]any{
				"project": map[string]any{
					"attributes":  map[string]string{"name": "home:Admin"},
					"description": string(""),
					"person": map[string]any{
						"attributes": map[string]string{"role": "maintainer", "userid": "Admin"},
						"content":    string(""),
					},
					"repository": map[string]any{
						"arch":       string("x86_64"),
						"attributes": map[string]string{"name": "openSUSE_Tumbleweed"},
						"path": map[string]any{
							"attributes": map[string]string{"project": "openSUSE.org:openSUSE:Factory", "repository": "snapshot"},
							"content":    string(""),
						},
					},
					"title": string(""),
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			result, err := NewXMLDecoder(nil).Decode(strings.NewReader(tc.Body), schema.NewNamedType(string(schema.ScalarObject)))
			assert.NilError(t, err)
			assert.DeepEqual(t, tc.Expected, result)
		})
	}
}

func TestDecodeXMLSchemaDrivenObject(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Person": {
			Fields: map[string]schema.ObjectField{
				"name": {Type: schema.NewNamedType(string(schema.ScalarString))},
				"age":  {Type: schema.NewNamedType(string(schema.ScalarInteger))},
			},
		},
	}

	body := `<person><name>Ada</name><age>30</age></person>`
	result, err := NewXMLDecoder(objects).Decode(strings.NewReader(body), schema.NewNamedType("Person"))
	assert.NilError(t, err)
	assert.DeepEqual(t, result, map[string]any{"name": "Ada", "age": int64(30)})
}

func TestDecodeXMLWrappedArray(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Shelf": {
			Fields: map[string]schema.ObjectField{
				"books": {
					Type: schema.NewArrayType(schema.NewNamedType(string(schema.ScalarString))),
					XML:  &schema.XMLSchema{Wrapped: true, Name: "books"},
				},
			},
		},
	}

	body := `<shelf><books><book>A</book><book>B</book></books></shelf>`
	result, err := NewXMLDecoder(objects).Decode(strings.NewReader(body), schema.NewNamedType("Shelf"))
	assert.NilError(t, err)
	assert.DeepEqual(t, result, map[string]any{"books": []any{"A", "B"}})
}

func TestDecodeXMLUnwrappedArray(t *testing.T) {
	objects := map[string]schema.ObjectType{
		"Shelf": {
			Fields: map[string]schema.ObjectField{
				"book": {
					Type: schema.NewArrayType(schema.NewNamedType(string(schema.ScalarString))),
				},
			},
		},
	}

	body := `<shelf><book>A</book><book>B</book></shelf>`
	result, err := NewXMLDecoder(objects).Decode(strings.NewReader(body), schema.NewNamedType("Shelf"))
	assert.NilError(t, err)
	assert.DeepEqual(t, result, map[string]any{"book": []any{"A", "B"}})
}
