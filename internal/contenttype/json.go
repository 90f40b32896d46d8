package contenttype

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kestrun/kestrun/schema"
)

// JSONDecoder decodes a JSON body into the language-neutral value tree
// described by §4.2, recursively conformed to a declared schema.Type.
type JSONDecoder struct {
	objects map[string]schema.ObjectType
}

// NewJSONDecoder creates a JSON decoder that resolves named object types
// against objects.
func NewJSONDecoder(objects map[string]schema.ObjectType) *JSONDecoder {
	return &JSONDecoder{objects: objects}
}

// Decode unmarshals JSON and conforms the result to resultType.
func (c *JSONDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	switch t := underlyingType.(type) {
	case *schema.ArrayType:
		var rawResult []any
		if err := json.NewDecoder(r).Decode(&rawResult); err != nil {
			return nil, err
		}

		if rawResult == nil {
			return nil, nil
		}

		return c.evalArrayType(rawResult, t, []string{})
	case *schema.NamedType:
		var result any
		if err := json.NewDecoder(r).Decode(&result); err != nil {
			return nil, err
		}

		if result == nil {
			return nil, nil
		}

		return c.evalNamedType(result, t, []string{})
	default:
		var result any
		err := json.NewDecoder(r).Decode(&result)

		return result, err
	}
}

func (c *JSONDecoder) evalSchemaType(value any, schemaType schema.Type, fieldPaths []string) (any, error) {
	if value == nil {
		return nil, nil
	}

	if len(fieldPaths) > maxConformDepth {
		return nil, fmt.Errorf("%s: exceeded maximum binding depth of %d", strings.Join(fieldPaths, "."), maxConformDepth)
	}

	switch t := schemaType.Interface().(type) {
	case *schema.NullableType:
		return c.evalSchemaType(value, t.UnderlyingType, fieldPaths)
	case *schema.ArrayType:
		return c.evalArrayType(value, t, fieldPaths)
	case *schema.NamedType:
		return c.evalNamedType(value, t, fieldPaths)
	default:
		return value, nil
	}
}

func (c *JSONDecoder) evalArrayType(value any, arrayType *schema.ArrayType, fieldPaths []string) (any, error) {
	arrayValue, ok := value.([]any)
	if !ok {
		return value, nil
	}

	results := make([]any, len(arrayValue))
	for i, item := range arrayValue {
		result, err := c.evalSchemaType(item, arrayType.ElementType, append(fieldPaths, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		results[i] = result
	}

	return results, nil
}

func (c *JSONDecoder) evalNamedType(value any, namedType *schema.NamedType, fieldPaths []string) (any, error) {
	objectType, ok := c.objects[namedType.Name]
	if !ok {
		result, err := c.evalScalarType(value, namedType.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
		}

		return result, nil
	}

	objectValue, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}

	results := make(map[string]any)
	for key, field := range objectType.Fields {
		fieldValue, ok := lookupCaseInsensitive(objectValue, key)
		if !ok {
			continue
		}

		if fieldValue == nil {
			results[key] = nil

			continue
		}

		result, err := c.evalSchemaType(fieldValue, field.Type, append(fieldPaths, key))
		if err != nil {
			return nil, err
		}

		results[key] = result
	}

	return results, nil
}

// evalScalarType coerces value towards the named scalar kind where the
// JSON decoder's own type (float64 for all JSON numbers, etc.) doesn't
// already match the declared kind; unrecognized names pass the value
// through unchanged, matching §4.2's "decoders must not throw for
// malformed content" rule.
func (c *JSONDecoder) evalScalarType(value any, scalarName string) (any, error) {
	switch schema.ScalarKind(scalarName) {
	case schema.ScalarBoolean:
		return decodeBoolean(value)
	case schema.ScalarNumber:
		return decodeFloat(value)
	case schema.ScalarInteger:
		return decodeInt(value)
	default:
		return value, nil
	}
}

// lookupCaseInsensitive finds a key in tree by case-insensitive match,
// matching §4.2's ordered-map-with-case-insensitive-keys tree shape.
func lookupCaseInsensitive(tree map[string]any, key string) (any, bool) {
	if v, ok := tree[key]; ok {
		return v, true
	}

	for k, v := range tree {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}

	return nil, false
}
