package kestrun

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/kestrun/kestrun/schema"
)

func TestGinPatternConvertsBraceSyntax(t *testing.T) {
	assert.Equal(t, ginPattern("/items/{id}"), "/items/:id")
	assert.Equal(t, ginPattern("/a/{x}/b/{y}"), "/a/:x/b/:y")
	assert.Equal(t, ginPattern("/plain"), "/plain")
}

func TestRegisterRouteShellCompilesAndWires(t *testing.T) {
	h := NewHost(WithPoolSize(2))

	route := schema.RouteDescriptor{
		Method:        "GET",
		Pattern:       "/greet/{name}",
		GuestLanguage: schema.Shell,
		Script:        `result = "hello"`,
		Parameters: []schema.ParameterDescriptor{
			{Name: "name", Location: schema.LocationPath, Kind: schema.ScalarString},
		},
	}

	err := h.RegisterRoute(route)
	assert.NilError(t, err)
}

func TestRegisterRouteUnknownLanguageFails(t *testing.T) {
	h := NewHost(WithPoolSize(2))

	route := schema.RouteDescriptor{
		Method:        "GET",
		Pattern:       "/x",
		GuestLanguage: schema.GuestLanguage("cobol"),
		Script:        "",
	}

	err := h.RegisterRoute(route)
	assert.ErrorContains(t, err, "unknown guest language")
}
