package errorresponse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kestrun/kestrun/internal/apperror"
	"github.com/kestrun/kestrun/internal/response"
	"gotest.tools/v3/assert"
)

type fakeWriter struct {
	http.ResponseWriter
	started bool
}

func (f *fakeWriter) Written() bool { return f.started }

func newFakeWriter() (*fakeWriter, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()

	return &fakeWriter{ResponseWriter: rec, started: false}, rec
}

func TestWriteDefaultBodyForAppError(t *testing.T) {
	w, rec := newFakeWriter()
	writer := New(Config{})

	err := writer.Write(context.Background(), w, apperror.MissingContentType([]string{"application/json"}))
	assert.NilError(t, err)
	assert.Equal(t, rec.Code, 415)
	assert.Assert(t, len(rec.Body.Bytes()) > 0)
}

func TestWriteSilentOnCancellation(t *testing.T) {
	w, rec := newFakeWriter()
	writer := New(Config{})

	err := writer.Write(context.Background(), w, apperror.RequestCancelled())
	assert.NilError(t, err)
	assert.Equal(t, rec.Body.Len(), 0)
	assert.Equal(t, rec.Code, 200)
}

func TestWriteRethrowsScriptFailureWithUpstreamHandler(t *testing.T) {
	w, rec := newFakeWriter()
	writer := New(Config{HasUpstreamHandler: true})

	cause := errors.New("boom")
	original := apperror.ScriptRuntimeFailure("script failed", cause)

	err := writer.Write(context.Background(), w, original)
	assert.Assert(t, err == original)
	assert.Equal(t, rec.Body.Len(), 0)
}

func TestWriteSkipsWhenResponseAlreadyStarted(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &fakeWriter{ResponseWriter: rec, started: true}
	writer := New(Config{})

	err := writer.Write(context.Background(), w, apperror.ParameterBindingFailure("id", errors.New("bad")))
	assert.NilError(t, err)
	assert.Equal(t, rec.Body.Len(), 0)
}

func TestWriteUsesHookResultWhenProvided(t *testing.T) {
	w, rec := newFakeWriter()
	writer := New(Config{
		Hook: func(_ context.Context, statusCode int, _ string, _ error) (*response.Model, error) {
			model := response.NewModel()
			model.Status = statusCode
			model.ContentType = "text/plain"
			model.Body = []byte("custom error page")

			return model, nil
		},
	})

	err := writer.Write(context.Background(), w, apperror.MalformedContentType("???"))
	assert.NilError(t, err)
	assert.Equal(t, rec.Code, 400)
	assert.Equal(t, rec.Body.String(), "custom error page")
}
