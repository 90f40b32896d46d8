// Package apperror implements the taxonomy-driven error surface (C8): a
// typed error carrying an HTTP status and a JSON-serializable detail
// payload, plus the kinds enumerated in §4.8.
package apperror

import "fmt"

// Kind tags one of §4.8's error kinds.
type Kind string

const (
	KindMissingContentType      Kind = "missing-content-type"
	KindMalformedContentType    Kind = "malformed-content-type"
	KindUnsupportedContentType  Kind = "unsupported-content-type"
	KindParameterBindingFailure Kind = "parameter-binding-failure"
	KindFormParsingFailure      Kind = "form-parsing-failure"
	KindParameterResolution     Kind = "parameter-resolution-failure"
	KindPostponedWriteError     Kind = "postponed-write-error"
	KindScriptRuntimeFailure    Kind = "script-runtime-failure"
	KindRequestCancelled        Kind = "request-cancelled"
)

// defaultStatus is the HTTP status §4.8 assigns to each kind absent a
// route-level override (form/parameter-resolution failures carry a
// configured status instead of a fixed one).
var defaultStatus = map[Kind]int{
	KindMissingContentType:      415,
	KindMalformedContentType:    400,
	KindUnsupportedContentType:  415,
	KindParameterBindingFailure: 400,
	KindFormParsingFailure:      400,
	KindParameterResolution:     400,
	KindPostponedWriteError:     500,
	KindScriptRuntimeFailure:    500,
}

// AppError is the error type raised by every Kestrun component that needs
// to surface a client-facing failure through C8.
type AppError struct {
	Kind    Kind
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// New creates an AppError of kind with message, using kind's default
// status.
func New(kind Kind, message string, details map[string]any) *AppError {
	return &AppError{
		Kind:    kind,
		Status:  defaultStatus[kind],
		Message: message,
		Details: details,
	}
}

// WithStatus overrides the error's HTTP status, used for
// form-parsing-failure/parameter-resolution-failure's "configured status".
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status

	return e
}

// WithCause attaches the underlying error for %w-style wrapping while
// keeping Details as the client-facing payload.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause

	return e
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause.Error())
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.cause
}

// MissingContentType builds the §4.1 "missing content type" failure.
func MissingContentType(allowed []string) *AppError {
	return New(KindMissingContentType, "the request has a body but no Content-Type header was set", map[string]any{
		"allowed": allowed,
	})
}

// MalformedContentType builds the §4.1 "malformed content type" failure.
func MalformedContentType(raw string) *AppError {
	return New(KindMalformedContentType, "the request's Content-Type header could not be parsed", map[string]any{
		"raw": raw,
	})
}

// UnsupportedContentType builds the §4.1 "unsupported content type" failure.
func UnsupportedContentType(raw string, allowed []string) *AppError {
	return New(KindUnsupportedContentType, "the request's Content-Type is not one of the route's allowed types", map[string]any{
		"raw":     raw,
		"allowed": allowed,
	})
}

// ParameterBindingFailure builds the §4.3 "parameter-binding failure".
func ParameterBindingFailure(name string, cause error) *AppError {
	return New(KindParameterBindingFailure, fmt.Sprintf("failed to bind parameter %q", name), map[string]any{
		"parameter": name,
	}).WithCause(cause)
}

// ScriptRuntimeFailure builds the §4.6 step 7 "non-empty error stream"
// failure; errorresponse.Config.HasUpstreamHandler decides whether C8
// rethrows it instead of writing a default 500 body.
func ScriptRuntimeFailure(message string, cause error) *AppError {
	return New(KindScriptRuntimeFailure, message, nil).WithCause(cause)
}

// RequestCancelled builds the silent cancellation signal: no response
// body is ever written for this kind (§4.8), the caller just stops.
func RequestCancelled() *AppError {
	return New(KindRequestCancelled, "request cancelled", nil)
}

// IsCancellation reports whether err is the canonical cancellation error.
func IsCancellation(err error) bool {
	appErr, ok := err.(*AppError)

	return ok && appErr.Kind == KindRequestCancelled
}
