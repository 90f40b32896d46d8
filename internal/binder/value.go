// Package binder implements the parameter binder (C3): for each declared
// parameter it locates the raw value in the request, normalizes it, coerces
// it to the parameter's target type, and emits a resolved-parameter record.
package binder

import (
	"os"

	"github.com/kestrun/kestrun/schema"
)

// DefaultValueGetter abstracts how a parameter's declared default value is
// produced when the request carries no raw value for it.
type DefaultValueGetter interface {
	GetValue(headers map[string]string, kind schema.ScalarKind) (any, error)
}

// LiteralDefaultValue returns a fixed value regardless of the request.
type LiteralDefaultValue struct {
	value any
}

// NewLiteralDefaultValue creates a default value getter that always returns value.
func NewLiteralDefaultValue(value any) *LiteralDefaultValue {
	return &LiteralDefaultValue{value: value}
}

// GetValue returns the literal value unchanged.
func (d LiteralDefaultValue) GetValue(_ map[string]string, _ schema.ScalarKind) (any, error) {
	return d.value, nil
}

// EnvDefaultValue reads a default value from a process environment variable,
// captured once at construction.
type EnvDefaultValue struct {
	rawValue *string
}

// NewEnvDefaultValue creates a default value getter backed by env var name.
func NewEnvDefaultValue(name string) *EnvDefaultValue {
	var value *string
	if rawValue, ok := os.LookupEnv(name); ok {
		value = &rawValue
	}

	return &EnvDefaultValue{rawValue: value}
}

// GetValue coerces the captured environment value to kind.
func (d EnvDefaultValue) GetValue(_ map[string]string, kind schema.ScalarKind) (any, error) {
	if d.rawValue == nil {
		return nil, nil
	}

	return coerceStringToScalarKind(*d.rawValue, kind)
}

// ForwardHeaderDefaultValue reads a default value from a named request
// header, coercing it to the parameter's declared scalar kind.
type ForwardHeaderDefaultValue struct {
	name string
}

// NewForwardHeaderDefaultValue creates a default value getter backed by header name.
func NewForwardHeaderDefaultValue(name string) *ForwardHeaderDefaultValue {
	return &ForwardHeaderDefaultValue{name: name}
}

// GetValue reads and coerces the forwarded header's value.
func (d ForwardHeaderDefaultValue) GetValue(headers map[string]string, kind schema.ScalarKind) (any, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	rawValue, ok := headers[d.name]
	if !ok {
		return nil, nil
	}

	return coerceStringToScalarKind(rawValue, kind)
}
