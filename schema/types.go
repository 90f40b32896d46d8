// Package schema defines Kestrun's route, parameter, and value-type
// descriptors: the immutable data shared between route registration and
// every request the route later serves.
package schema

import "fmt"

// Type is the sum type over a parameter or object field's declared shape:
// NullableType, ArrayType, or NamedType. Binder and decoder code switches
// on Interface() rather than using inheritance.
type Type interface {
	Interface() Type
	isType()
}

// NullableType wraps another type, marking it as accepting null/missing
// values.
type NullableType struct {
	UnderlyingType Type
}

func NewNullableType(underlying Type) *NullableType {
	return &NullableType{UnderlyingType: underlying}
}

func (t *NullableType) Interface() Type { return t }
func (*NullableType) isType()           {}

// ArrayType declares a homogeneous list of ElementType.
type ArrayType struct {
	ElementType Type
}

func NewArrayType(element Type) *ArrayType {
	return &ArrayType{ElementType: element}
}

func (t *ArrayType) Interface() Type { return t }
func (*ArrayType) isType()           {}

// NamedType references either a scalar kind (by ScalarKind-shaped Name) or
// an object type registered on the owning schema.
type NamedType struct {
	Name string
}

func NewNamedType(name string) *NamedType {
	return &NamedType{Name: name}
}

func (t *NamedType) Interface() Type { return t }
func (*NamedType) isType()           {}

// UnwrapNullableType strips NullableType wrappers, reporting whether the
// input was nullable at least one level deep.
func UnwrapNullableType(input Type) (Type, bool, error) {
	switch t := input.Interface().(type) {
	case *NullableType:
		underlying, _, err := UnwrapNullableType(t.UnderlyingType)
		if err != nil {
			return nil, false, err
		}

		return underlying, true, nil
	case *ArrayType, *NamedType:
		return t, false, nil
	default:
		return nil, false, fmt.Errorf("invalid type %v", input)
	}
}

// ScalarKind is the schema kind of a parameter or object field, per §3 of
// the specification.
type ScalarKind string

const (
	ScalarInteger ScalarKind = "integer"
	ScalarNumber  ScalarKind = "number"
	ScalarBoolean ScalarKind = "boolean"
	ScalarString  ScalarKind = "string"
	ScalarArray   ScalarKind = "array"
	ScalarObject  ScalarKind = "object"
	ScalarUUID    ScalarKind = "uuid"
	ScalarNone    ScalarKind = "none"
)

// ParameterLocation is where a parameter's raw value is found on the
// incoming request.
type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
	LocationBody   ParameterLocation = "body"
)

// ParameterStyle controls how array/object parameters are serialized in
// the request (mirrors the OpenAPI `style` keyword).
type ParameterStyle string

const (
	StyleForm   ParameterStyle = "form"
	StyleSimple ParameterStyle = "simple"
)
