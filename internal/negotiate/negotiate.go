// Package negotiate implements the media type negotiator (C1): it
// canonicalizes an incoming Content-Type header and matches it against a
// route's allowed list, per §4.1.
package negotiate

import (
	"mime"
	"strings"
)

// Outcome tags the result of Check.
type Outcome int

const (
	// OK means the request's content type (or absence of one) is acceptable.
	OK Outcome = iota
	// Missing means the request has a body, allowed is non-empty, and no
	// Content-Type header was sent.
	Missing
	// Malformed means the Content-Type header value could not be parsed.
	Malformed
	// Unsupported means the canonicalized content type is not in allowed.
	Unsupported
)

// Result is the outcome of a Check call.
type Result struct {
	Outcome Outcome
	// Canonical is the canonicalized media type (stripped of parameters,
	// lowercased, alias-collapsed); empty when no Content-Type header was
	// sent or it could not be parsed.
	Canonical string
	// Raw is the original, unparsed header value; empty for Missing.
	Raw string
	// Allowed is the route's allowed content type list, echoed back for
	// error reporting.
	Allowed []string
}

// aliases collapses known content-type spellings onto one canonical form,
// per §4.1 ("application/yaml ↔ application/x-yaml; text/yaml;
// application/xml ↔ text/xml; etc.").
var aliases = map[string]string{
	"application/x-yaml": "application/yaml",
	"text/yaml":          "application/yaml",
	"text/x-yaml":        "application/yaml",
	"text/xml":           "application/xml",
	"application/x-www-form-urlencoded; charset=utf-8": "application/x-www-form-urlencoded",
}

// Canonicalize strips Content-Type parameters, lowercases the type/
// subtype, and collapses known aliases.
func Canonicalize(raw string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", err
	}

	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if alias, ok := aliases[mediaType]; ok {
		return alias, nil
	}

	return mediaType, nil
}

// Check implements §4.1's `check(request.contentType, allowed)` operation.
// hasBody should be true when Content-Length > 0 or any Transfer-Encoding
// header is present.
func Check(contentType string, hasBody bool, allowed []string) Result {
	result := Result{Raw: contentType, Allowed: allowed}

	if len(allowed) == 0 {
		if canonical, err := Canonicalize(contentType); err == nil {
			result.Canonical = canonical
		}

		result.Outcome = OK

		return result
	}

	if contentType == "" {
		if !hasBody {
			result.Outcome = OK

			return result
		}

		result.Outcome = Missing

		return result
	}

	canonical, err := Canonicalize(contentType)
	if err != nil {
		result.Outcome = Malformed

		return result
	}

	result.Canonical = canonical

	for _, a := range allowed {
		allowedCanonical, err := Canonicalize(a)
		if err != nil {
			allowedCanonical = strings.ToLower(strings.TrimSpace(a))
		}

		if allowedCanonical == canonical {
			result.Outcome = OK

			return result
		}
	}

	result.Outcome = Unsupported

	return result
}
