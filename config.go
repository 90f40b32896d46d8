package kestrun

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/kestrun/kestrun/schema"
)

// HostConfig is the mapstructure-tagged, YAML-decodable host configuration
// surface from §6 and §10.3: the fields a host process loads once at
// startup rather than building up through WithXxx options in code.
type HostConfig struct {
	InterpreterPoolMax                int      `mapstructure:"interpreterPoolMax"`
	AllowedRequestContentTypesDefault []string `mapstructure:"allowedRequestContentTypesDefault"`
	AutoErrorResponseContentTypes     []string `mapstructure:"autoErrorResponseContentTypes"`
	ErrorResponseScript               string   `mapstructure:"errorResponseScript"`
	Routes                            []RouteConfig `mapstructure:"routes"`
}

// ParameterConfig is the mapstructure-tagged shape of one route parameter,
// per §6's configuration-surface field list.
type ParameterConfig struct {
	Name         string   `mapstructure:"name"`
	Type         string   `mapstructure:"type"`
	Location     string   `mapstructure:"location"`
	Style        string   `mapstructure:"style"`
	Explode      bool     `mapstructure:"explode"`
	ContentTypes []string `mapstructure:"contentTypes"`
	HasDefault   bool     `mapstructure:"hasDefault"`
	DefaultValue any      `mapstructure:"defaultValue"`
}

// RouteConfig is the mapstructure-tagged shape of one route, per §6's
// configuration-surface field list.
type RouteConfig struct {
	Method                     string            `mapstructure:"method"`
	Pattern                    string            `mapstructure:"pattern"`
	GuestLanguage              string            `mapstructure:"guestLanguage"`
	Script                     string            `mapstructure:"script"`
	Parameters                 []ParameterConfig `mapstructure:"parameters"`
	AllowedRequestContentTypes []string          `mapstructure:"allowedRequestContentTypes"`
	DefaultResponseContentType string            `mapstructure:"defaultResponseContentType"`
	Arguments                  map[string]any    `mapstructure:"arguments"`
	Locals                     map[string]any    `mapstructure:"locals"`
	RequestCulture             string            `mapstructure:"requestCulture"`
}

// DecodeHostConfig parses document as YAML into a generic tree and then
// decodes it into a HostConfig via mapstructure, per §10.3: YAML is only
// ever a carrier for the generic map mapstructure actually binds.
func DecodeHostConfig(document []byte) (*HostConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(document, &raw); err != nil {
		return nil, fmt.Errorf("config: failed to parse host configuration yaml: %w", err)
	}

	cfg := &HostConfig{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to build decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("config: failed to decode host configuration: %w", err)
	}

	return cfg, nil
}

// RouteDescriptors converts every configured route into a
// schema.RouteDescriptor, resolving guest language, parameter location,
// scalar kind, and style names against their schema enum values.
func (c *HostConfig) RouteDescriptors() ([]schema.RouteDescriptor, error) {
	descriptors := make([]schema.RouteDescriptor, 0, len(c.Routes))

	for _, rc := range c.Routes {
		descriptor, err := rc.toDescriptor()
		if err != nil {
			return nil, err
		}

		descriptors = append(descriptors, descriptor)
	}

	return descriptors, nil
}

func (rc RouteConfig) toDescriptor() (schema.RouteDescriptor, error) {
	language, err := parseGuestLanguage(rc.GuestLanguage)
	if err != nil {
		return schema.RouteDescriptor{}, fmt.Errorf("route %s %s: %w", rc.Method, rc.Pattern, err)
	}

	params := make([]schema.ParameterDescriptor, 0, len(rc.Parameters))
	for _, pc := range rc.Parameters {
		param, err := pc.toDescriptor()
		if err != nil {
			return schema.RouteDescriptor{}, fmt.Errorf("route %s %s: parameter %q: %w", rc.Method, rc.Pattern, pc.Name, err)
		}

		params = append(params, param)
	}

	return schema.RouteDescriptor{
		Method:              rc.Method,
		Pattern:             rc.Pattern,
		GuestLanguage:       language,
		Script:              rc.Script,
		Parameters:          params,
		AllowedRequestTypes: rc.AllowedRequestContentTypes,
		Arguments:           rc.Arguments,
		Locals:              rc.Locals,
		RequestCulture:      rc.RequestCulture,
	}, nil
}

func (pc ParameterConfig) toDescriptor() (schema.ParameterDescriptor, error) {
	location, err := parseLocation(pc.Location)
	if err != nil {
		return schema.ParameterDescriptor{}, err
	}

	kind, err := parseScalarKind(pc.Type)
	if err != nil {
		return schema.ParameterDescriptor{}, err
	}

	style, err := parseStyle(pc.Style)
	if err != nil {
		return schema.ParameterDescriptor{}, err
	}

	return schema.ParameterDescriptor{
		Name:         pc.Name,
		Type:         schema.NewNamedType(pc.Type),
		Kind:         kind,
		Location:     location,
		Style:        style,
		Explode:      pc.Explode,
		ContentTypes: pc.ContentTypes,
		HasDefault:   pc.HasDefault,
		DefaultValue: pc.DefaultValue,
	}, nil
}

func parseGuestLanguage(value string) (schema.GuestLanguage, error) {
	switch schema.GuestLanguage(value) {
	case schema.Shell, schema.Managed, schema.ManagedAlt:
		return schema.GuestLanguage(value), nil
	default:
		return "", fmt.Errorf("unknown guestLanguage %q", value)
	}
}

func parseLocation(value string) (schema.ParameterLocation, error) {
	if value == "" {
		return schema.LocationQuery, nil
	}

	switch schema.ParameterLocation(value) {
	case schema.LocationPath, schema.LocationQuery, schema.LocationHeader, schema.LocationCookie, schema.LocationBody:
		return schema.ParameterLocation(value), nil
	default:
		return "", fmt.Errorf("unknown location %q", value)
	}
}

// parseScalarKind resolves a type name against the scalar kinds; any
// other name is treated as an object-type reference and bound as
// schema.ScalarObject, resolved later against the host's registered
// object types.
func parseScalarKind(value string) (schema.ScalarKind, error) {
	switch schema.ScalarKind(value) {
	case schema.ScalarInteger, schema.ScalarNumber, schema.ScalarBoolean, schema.ScalarString,
		schema.ScalarArray, schema.ScalarObject, schema.ScalarUUID, schema.ScalarNone:
		return schema.ScalarKind(value), nil
	case "":
		return schema.ScalarString, nil
	default:
		return schema.ScalarObject, nil
	}
}

func parseStyle(value string) (schema.ParameterStyle, error) {
	switch schema.ParameterStyle(value) {
	case schema.StyleForm, schema.StyleSimple:
		return schema.ParameterStyle(value), nil
	case "":
		return schema.StyleSimple, nil
	default:
		return "", fmt.Errorf("unknown style %q", value)
	}
}
