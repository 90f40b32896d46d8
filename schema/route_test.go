package schema

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestParameterDescriptorValidate(t *testing.T) {
	testCases := []struct {
		name     string
		param    ParameterDescriptor
		errorMsg string
	}{
		{
			name: "body content types without body location",
			param: ParameterDescriptor{
				Name:         "payload",
				Location:     LocationQuery,
				ContentTypes: []string{"application/json"},
			},
			errorMsg: `parameter "payload": ContentTypes is only valid for location=Body`,
		},
		{
			name: "body parameter with content types is valid",
			param: ParameterDescriptor{
				Name:         "payload",
				Location:     LocationBody,
				ContentTypes: []string{"application/json"},
			},
		},
		{
			name: "plain query parameter is valid",
			param: ParameterDescriptor{
				Name:     "id",
				Location: LocationQuery,
				Kind:     ScalarInteger,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.param.Validate()
			if tc.errorMsg == "" {
				assert.NilError(t, err)

				return
			}

			assert.Error(t, err, tc.errorMsg)
		})
	}
}

func TestRouteDescriptorValidateRejectsDuplicateBody(t *testing.T) {
	route := RouteDescriptor{
		Method:  "POST",
		Pattern: "/items",
		Parameters: []ParameterDescriptor{
			{Name: "a", Location: LocationBody},
			{Name: "b", Location: LocationBody},
		},
	}

	err := route.Validate()
	assert.Error(t, err, "route POST /items: more than one body parameter declared")
}

func TestRouteDescriptorBodyParameter(t *testing.T) {
	route := RouteDescriptor{
		Parameters: []ParameterDescriptor{
			{Name: "id", Location: LocationPath},
			{Name: "payload", Location: LocationBody},
		},
	}

	body, ok := route.BodyParameter()
	assert.Assert(t, ok)
	assert.Equal(t, body.Name, "payload")
}

func TestUnwrapNullableType(t *testing.T) {
	inner := NewNamedType("String")
	nullable := NewNullableType(inner)

	unwrapped, wasNullable, err := UnwrapNullableType(nullable)
	assert.NilError(t, err)
	assert.Assert(t, wasNullable)
	assert.Equal(t, unwrapped.(*NamedType).Name, "String")

	unwrapped, wasNullable, err = UnwrapNullableType(inner)
	assert.NilError(t, err)
	assert.Assert(t, !wasNullable)
	assert.Equal(t, unwrapped.(*NamedType).Name, "String")
}
