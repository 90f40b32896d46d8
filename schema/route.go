package schema

import "fmt"

// GuestLanguage tags which embedded interpreter family a route's script
// runs in.
type GuestLanguage string

const (
	Shell      GuestLanguage = "shell"
	Managed    GuestLanguage = "managed"
	ManagedAlt GuestLanguage = "managedAlt"
)

// ParameterDescriptor is the immutable description of one route parameter,
// per §3's "Parameter descriptor". Invariants: location=Body iff this is
// the route's unique body parameter; a non-empty ContentTypes implies
// location=Body. Validate checks the ContentTypes rule and
// RouteDescriptor.Validate rejects a second body parameter; DefaultValue
// is not checked against the target Type/Kind.
type ParameterDescriptor struct {
	Name         string
	Type         Type
	Kind         ScalarKind
	Location     ParameterLocation
	DefaultValue any
	HasDefault   bool
	Explode      bool
	Style        ParameterStyle
	ContentTypes []string
	FormOptions  *FormOptions
	ObjectType   *ObjectType
}

// FormOptions is present on a body parameter only when its content type is
// multipart (§4.3 step 7). The part-bound fields are the target object
// type's fields tagged with ObjectField.PartAttribute; MaxPartDepth is
// carried here but not read by the binder.
type FormOptions struct {
	MaxPartDepth int
}

// Validate checks the invariants from §3.
func (p ParameterDescriptor) Validate() error {
	if len(p.ContentTypes) > 0 && p.Location != LocationBody {
		return fmt.Errorf("parameter %q: ContentTypes is only valid for location=Body", p.Name)
	}

	return nil
}

// RequestBodyDescriptor documents the route's single body parameter
// alongside the parameter list, duplicated here for §6's configuration
// surface shape (`requestBody?`).
type RequestBodyDescriptor struct {
	Description string
	Required    bool
	Parameter   ParameterDescriptor
}

// ResponseContentType pairs a content type with the schema reference used
// to serialize it, per §6's `defaultResponseContentType?`.
type ResponseContentType struct {
	ContentType string
	SchemaRef   string
}

// RouteDescriptor is the immutable, registration-time description of one
// route, per §3's "Route descriptor".
type RouteDescriptor struct {
	Pattern              string
	Method               string
	GuestLanguage        GuestLanguage
	Script               string
	Parameters           []ParameterDescriptor
	RequestBody          *RequestBodyDescriptor
	AllowedRequestTypes  []string
	DefaultResponseTypes map[int][]ResponseContentType
	Arguments            map[string]any
	Locals               map[string]any
	RequestCulture       string
	AuthRequirements     []string
}

// BodyParameter returns the route's unique body parameter, if any.
func (r RouteDescriptor) BodyParameter() (ParameterDescriptor, bool) {
	for _, p := range r.Parameters {
		if p.Location == LocationBody {
			return p, true
		}
	}

	return ParameterDescriptor{}, false
}

// Validate checks every parameter invariant and that at most one body
// parameter is declared.
func (r RouteDescriptor) Validate() error {
	bodySeen := false

	for _, p := range r.Parameters {
		if err := p.Validate(); err != nil {
			return err
		}

		if p.Location == LocationBody {
			if bodySeen {
				return fmt.Errorf("route %s %s: more than one body parameter declared", r.Method, r.Pattern)
			}

			bodySeen = true
		}
	}

	return nil
}
