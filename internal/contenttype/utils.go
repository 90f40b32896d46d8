package contenttype

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kestrun/kestrun/schema"
)

// StringifySimpleScalar converts a simple scalar reflect.Value to its
// string representation, used by parameter coercion (§4.3 step 4) and by
// decoders that render scalars back into request/response encodings.
func StringifySimpleScalar(val reflect.Value, kind reflect.Kind) (string, error) {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(val.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(val.Float(), 'g', -1, val.Type().Bits()), nil
	case reflect.String:
		return val.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(val.Bool()), nil
	case reflect.Interface:
		return fmt.Sprint(val.Interface()), nil
	default:
		value := val.Interface()
		if stringer, ok := value.(fmt.Stringer); ok {
			return stringer.String(), nil
		}

		j, err := json.Marshal(value)
		if err != nil {
			return "", err
		}

		return string(j), nil
	}
}

// UnwrapNullableType is re-exported at the contenttype package level for
// callers that only import contenttype.
func UnwrapNullableType(input schema.Type) (schema.Type, bool, error) {
	return schema.UnwrapNullableType(input)
}

// decodeBoolean coerces a decoded JSON/YAML value towards bool, per §4.2's
// "true/false/null map directly" rule plus §4.3 step 4's case-insensitive
// string parse.
func decodeBoolean(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			return nil, nil
		}

		return b, nil
	default:
		return value, nil
	}
}

// decodeFloat coerces a decoded value towards float64.
func decodeFloat(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, nil
		}

		return f, nil
	default:
		return value, nil
	}
}

// maxConformDepth bounds the tree-to-type recursion performed while
// conforming a decoded body to its declared schema.Type, per §4.3 step 6
// ("enforce a maximum recursion depth (32) to prevent pathological input
// from exploding the binder").
const maxConformDepth = 32

// contentTypeConformer walks a decoded map/slice/scalar tree and conforms
// it to a declared schema.Type, shared by the decoders (YAML, BSON, CBOR,
// CSV) that unmarshal into Go-native containers before needing
// the same case-insensitive-key / nullable-unwrap / array-element walk
// the JSON decoder performs inline.
type contentTypeConformer struct {
	objects map[string]schema.ObjectType
}

func (c contentTypeConformer) evalSchemaType(value any, schemaType schema.Type, fieldPaths []string) (any, error) {
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

func (c contentTypeConformer) evalArrayType(value any, arrayType *schema.ArrayType, fieldPaths []string) (any, error) {
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

func (c contentTypeConformer) evalNamedType(value any, namedType *schema.NamedType, fieldPaths []string) (any, error) {
	objectType, ok := c.objects[namedType.Name]
	if !ok {
		return c.evalScalarType(value, namedType.Name)
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

		result, err := c.evalSchemaType(fieldValue, field.Type, append(fieldPaths, key))
		if err != nil {
			return nil, err
		}

		results[key] = result
	}

	return results, nil
}

func (c contentTypeConformer) evalScalarType(value any, scalarName string) (any, error) {
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

// decodeInt coerces a decoded value towards int64, truncating a
// whole-valued float64 (the JSON decoder's native representation for
// numbers that happen to fit int64 as well).
func decodeInt(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}

		return nil, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, nil
		}

		return i, nil
	default:
		return value, nil
	}
}
