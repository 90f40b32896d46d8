package contenttype

import (
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/kestrun/kestrun/schema"
)

// CBORDecoder decodes a CBOR body into the language-neutral value tree,
// reusing the shared contentTypeConformer walk once the payload is
// unmarshalled into Go-native map/slice/scalar shapes.
type CBORDecoder struct {
	objects map[string]schema.ObjectType
}

// NewCBORDecoder creates a CBOR decoder that resolves named object types
// against objects.
func NewCBORDecoder(objects map[string]schema.ObjectType) *CBORDecoder {
	return &CBORDecoder{objects: objects}
}

// Decode unmarshals raw CBOR into a map[string]any/[]any tree and
// conforms it to resultType.
func (c *CBORDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := cbor.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	conformer := contentTypeConformer{objects: c.objects}

	return conformer.evalSchemaType(normalizeCBOR(doc), underlyingType, []string{})
}

// normalizeCBOR converts cbor's native map[any]any (used when keys aren't
// statically typed) into map[string]any so the shared conformer can treat
// every decoder's intermediate tree identically, and turns the uint64 cbor
// produces for non-negative integers into int64 when it fits.
func normalizeCBOR(value any) any {
	switch v := value.(type) {
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}

		return v
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[toStringKey(key)] = normalizeCBOR(item)
		}

		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = normalizeCBOR(item)
		}

		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = normalizeCBOR(item)
		}

		return result
	default:
		return v
	}
}

func toStringKey(key any) string {
	if s, ok := key.(string); ok {
		return s
	}

	return ""
}
