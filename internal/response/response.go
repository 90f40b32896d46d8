// Package response implements the response adapter (C7): applying a
// request delegate's response model to the outgoing HTTP response, per
// §4.7, and the postponed-write serialization step of §4.6 step 10.
package response

import (
	"fmt"
	"net/http"

	"github.com/kestrun/kestrun/internal/apperror"
	"github.com/kestrun/kestrun/internal/contenttype"
	"github.com/kestrun/kestrun/internal/negotiate"
	"gopkg.in/yaml.v3"
)

// PostponedWrite is the sum type `{ok(payload, mediaType) | error(code)}`
// attached to a Model, built by a script's "write response later" helper.
type PostponedWrite struct {
	// ErrorCode is non-zero when the postponed write carries a failure
	// instead of a payload.
	ErrorCode int
	Payload   any
	MediaType string
}

// Model is the mutable response model a request delegate builds up over
// the course of handling one request (§3's "Response model").
type Model struct {
	Status      int
	Headers     map[string][]string
	ContentType string
	Body        []byte

	RedirectURL string

	HasPostponedWrite bool
	PostponedWrite    *PostponedWrite
}

// NewModel creates an empty response model defaulting to 200 OK.
func NewModel() *Model {
	return &Model{Status: http.StatusOK, Headers: map[string][]string{}}
}

// AddHeader appends a value to the response model's header map.
func (m *Model) AddHeader(name, value string) {
	m.Headers[name] = append(m.Headers[name], value)
}

// ResponseWriter is the subset of the HTTP listener's outbound response
// object the adapter needs. Written mirrors gin.ResponseWriter's method
// of the same name, which `*gin.Context`'s writer already satisfies, so
// the request delegate can hand gin's own writer to Apply without an
// adapter; it reports true once anything (the script itself, for SSE)
// has written to the underlying connection, matching §6's inbound
// `hasStarted` flag mirrored onto the response side.
type ResponseWriter interface {
	http.ResponseWriter
	Written() bool
}

// postponedWriteEncoders resolves a canonical media type to the encoder
// used for a postponed write's already-decoded Go value. Only the
// schema-free "Arbitrary" encoders apply here: a postponed write's
// payload is whatever the guest script returned, not a value bound
// against a declared schema.Type.
var postponedWriteEncoders = map[string]func(value any) ([]byte, error){
	"application/json": contenttype.EncodeArbitraryJSON,
	"application/xml": func(value any) ([]byte, error) {
		return contenttype.NewXMLEncoder(nil).EncodeArbitrary(value)
	},
	"application/yaml": yaml.Marshal,
}

// Apply implements §4.6 steps 8-11 and §4.7: it issues a redirect if one
// is set, skips entirely if the response has already started (the script
// wrote directly to the connection, e.g. SSE), resolves and serializes
// any postponed write, then writes headers, status, and body to w.
func Apply(w ResponseWriter, model *Model) error {
	if w.Written() {
		return nil
	}

	if model.RedirectURL != "" {
		status := model.Status
		if status == 0 || status == http.StatusOK {
			status = http.StatusFound
		}

		w.Header().Set("Location", model.RedirectURL)
		w.WriteHeader(status)

		return nil
	}

	if model.HasPostponedWrite {
		if err := applyPostponedWrite(model); err != nil {
			return err
		}
	}

	header := w.Header()
	for name, values := range model.Headers {
		for _, value := range values {
			header.Add(name, value)
		}
	}

	if model.ContentType != "" {
		header.Set("Content-Type", model.ContentType)
	}

	status := model.Status
	if status == 0 {
		status = http.StatusOK
	}

	w.WriteHeader(status)

	if len(model.Body) > 0 {
		if _, err := w.Write(model.Body); err != nil {
			return err
		}
	}

	return nil
}

// applyPostponedWrite implements §4.6 step 10: a non-zero error code
// raises an internal error; otherwise the payload is serialized using
// the recorded media type and merged into model as the response body.
func applyPostponedWrite(model *Model) error {
	write := model.PostponedWrite
	if write == nil {
		return nil
	}

	if write.ErrorCode != 0 {
		return apperror.New(apperror.KindPostponedWriteError,
			fmt.Sprintf("postponed write failed with code %d", write.ErrorCode), nil)
	}

	canonical, err := negotiate.Canonicalize(write.MediaType)
	if err != nil {
		canonical = write.MediaType
	}

	encoder, ok := postponedWriteEncoders[canonical]
	if !ok {
		return apperror.New(apperror.KindPostponedWriteError,
			fmt.Sprintf("no encoder registered for postponed write media type %q", write.MediaType), nil)
	}

	body, err := encoder(write.Payload)
	if err != nil {
		return apperror.New(apperror.KindPostponedWriteError, "failed to serialize postponed write payload", nil).WithCause(err)
	}

	model.Body = body
	model.ContentType = canonical

	return nil
}
