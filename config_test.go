package kestrun

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/kestrun/kestrun/schema"
)

const testHostConfigYAML = `
interpreterPoolMax: 4
allowedRequestContentTypesDefault: ["application/json"]
autoErrorResponseContentTypes: ["application/json"]
errorResponseScript: "({statusCode: StatusCode, body: {message: ErrorMessage}})"
routes:
  - method: GET
    pattern: /greet/{name}
    guestLanguage: managed
    script: "({body: {message: name}})"
    parameters:
      - name: name
        type: string
        location: path
`

func TestDecodeHostConfigParsesFields(t *testing.T) {
	cfg, err := DecodeHostConfig([]byte(testHostConfigYAML))
	assert.NilError(t, err)

	assert.Equal(t, cfg.InterpreterPoolMax, 4)
	assert.DeepEqual(t, cfg.AllowedRequestContentTypesDefault, []string{"application/json"})
	assert.Equal(t, len(cfg.Routes), 1)
	assert.Equal(t, cfg.Routes[0].Pattern, "/greet/{name}")
}

func TestHostConfigRouteDescriptorsResolvesEnums(t *testing.T) {
	cfg, err := DecodeHostConfig([]byte(testHostConfigYAML))
	assert.NilError(t, err)

	descriptors, err := cfg.RouteDescriptors()
	assert.NilError(t, err)
	assert.Equal(t, len(descriptors), 1)

	route := descriptors[0]
	assert.Equal(t, route.GuestLanguage, schema.Managed)
	assert.Equal(t, route.Method, "GET")
	assert.Equal(t, len(route.Parameters), 1)
	assert.Equal(t, route.Parameters[0].Kind, schema.ScalarString)
	assert.Equal(t, route.Parameters[0].Location, schema.LocationPath)
}

func TestHostConfigRouteDescriptorsRejectsUnknownGuestLanguage(t *testing.T) {
	cfg := &HostConfig{Routes: []RouteConfig{{Method: "GET", Pattern: "/x", GuestLanguage: "cobol"}}}

	_, err := cfg.RouteDescriptors()
	assert.ErrorContains(t, err, "unknown guestLanguage")
}
