package binder

import (
	"io"

	"github.com/kestrun/kestrun/internal/contenttype"
)

// RawRequest is the host-agnostic view of an incoming request that Bind
// locates parameter values from, per §4.3 step 1. The delegate (C6)
// populates this from whatever HTTP listener collaborator the host
// embeds, keeping the binder itself free of any transport dependency.
type RawRequest struct {
	PathValues map[string]string
	Query      map[string][]string
	Headers    map[string][]string
	Cookies    map[string]string

	ContentType        string
	HasBody            bool
	HasFormContentType bool

	Body           io.Reader
	MultipartParts []contenttype.RawPart
}

func (r *RawRequest) pathValue(name string) (string, bool) {
	v, ok := lookupCaseInsensitiveString(r.PathValues, name)

	return v, ok
}

func (r *RawRequest) queryValues(name string) ([]string, bool) {
	return lookupCaseInsensitiveSlice(r.Query, name)
}

func (r *RawRequest) headerValues(name string) ([]string, bool) {
	return lookupCaseInsensitiveSlice(r.Headers, name)
}

func (r *RawRequest) cookieValue(name string) (string, bool) {
	v, ok := lookupCaseInsensitiveString(r.Cookies, name)

	return v, ok
}

// headerMap flattens the first value of each header, used by
// DefaultValueGetter.GetValue's forwarded-header lookup.
func (r *RawRequest) headerMap() map[string]string {
	flat := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}

	return flat
}
