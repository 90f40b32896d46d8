package contenttype

import (
	"io"

	"github.com/kestrun/kestrun/schema"
	"go.mongodb.org/mongo-driver/bson"
)

// BSONDecoder decodes a BSON body into the language-neutral value tree,
// reusing the same schema-conformance walk as the JSON decoder once the
// document is unmarshalled into Go's native map/slice/scalar shapes.
type BSONDecoder struct {
	objects map[string]schema.ObjectType
}

// NewBSONDecoder creates a BSON decoder that resolves named object types
// against objects.
func NewBSONDecoder(objects map[string]schema.ObjectType) *BSONDecoder {
	return &BSONDecoder{objects: objects}
}

// Decode unmarshals raw into a bson.M/[]any tree and conforms it to
// resultType.
func (c *BSONDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	inner := contentTypeConformer{objects: c.objects}

	switch underlyingType.(type) {
	case *schema.ArrayType:
		var doc []any
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}

		return inner.evalSchemaType(normalizeBSON(doc), underlyingType, []string{})
	default:
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}

		return inner.evalSchemaType(normalizeBSON(doc), underlyingType, []string{})
	}
}

// normalizeBSON recursively converts bson.M/bson.D/primitive types into
// plain map[string]any/[]any/scalar so the shared conformer walk can
// treat every decoder's intermediate tree identically.
func normalizeBSON(value any) any {
	switch v := value.(type) {
	case bson.M:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = normalizeBSON(item)
		}

		return result
	case bson.D:
		result := make(map[string]any, len(v))
		for _, elem := range v {
			result[elem.Key] = normalizeBSON(elem.Value)
		}

		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = normalizeBSON(item)
		}

		return result
	case bson.A:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = normalizeBSON(item)
		}

		return result
	case int32:
		return int64(v)
	default:
		return v
	}
}
