package contenttype

import (
	"fmt"
	"io"

	"github.com/kestrun/kestrun/schema"
	"gopkg.in/yaml.v3"
)

// YAMLDecoder decodes a YAML body into the language-neutral value tree,
// reusing the shared contentTypeConformer walk once the document is
// unmarshalled into Go-native map/slice/scalar shapes. yaml.v3 decodes
// mappings whose keys are all strings into map[string]any when the target
// is any; mappings with other keys arrive as map[any]any and are
// converted by normalizeYAML.
type YAMLDecoder struct {
	objects map[string]schema.ObjectType
}

// NewYAMLDecoder creates a YAML decoder that resolves named object types
// against objects.
func NewYAMLDecoder(objects map[string]schema.ObjectType) *YAMLDecoder {
	return &YAMLDecoder{objects: objects}
}

// Decode unmarshals raw into a map[string]any/[]any tree and conforms it
// to resultType.
func (c *YAMLDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}

		return nil, err
	}

	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	conformer := contentTypeConformer{objects: c.objects}

	return conformer.evalSchemaType(normalizeYAML(doc), underlyingType, []string{})
}

// normalizeYAML coerces the int-keyed maps yaml.v3 can still produce for
// non-string mapping keys into string keys, matching the other decoders'
// map[string]any tree shape.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[fmt.Sprint(key)] = normalizeYAML(item)
		}

		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = normalizeYAML(item)
		}

		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = normalizeYAML(item)
		}

		return result
	default:
		return v
	}
}
