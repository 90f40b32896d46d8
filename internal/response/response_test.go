package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/v3/assert"
)

type fakeWriter struct {
	http.ResponseWriter
	started bool
}

func (f *fakeWriter) Written() bool { return f.started }

func newFakeWriter(started bool) (*fakeWriter, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()

	return &fakeWriter{ResponseWriter: rec, started: started}, rec
}

func TestApplySkipsWhenAlreadyStarted(t *testing.T) {
	w, rec := newFakeWriter(true)

	model := NewModel()
	model.Body = []byte("ignored")

	err := Apply(w, model)
	assert.NilError(t, err)
	assert.Equal(t, rec.Code, 200)
	assert.Equal(t, rec.Body.Len(), 0)
}

func TestApplyWritesStatusHeadersAndBody(t *testing.T) {
	w, rec := newFakeWriter(false)

	model := NewModel()
	model.Status = http.StatusCreated
	model.ContentType = "application/json"
	model.AddHeader("X-Trace", "abc")
	model.Body = []byte(`{"ok":true}`)

	err := Apply(w, model)
	assert.NilError(t, err)
	assert.Equal(t, rec.Code, http.StatusCreated)
	assert.Equal(t, rec.Header().Get("X-Trace"), "abc")
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, rec.Body.String(), `{"ok":true}`)
}

func TestApplyRedirectSupersedesBody(t *testing.T) {
	w, rec := newFakeWriter(false)

	model := NewModel()
	model.RedirectURL = "https://example.com/next"
	model.Body = []byte("never written")

	err := Apply(w, model)
	assert.NilError(t, err)
	assert.Equal(t, rec.Code, http.StatusFound)
	assert.Equal(t, rec.Header().Get("Location"), "https://example.com/next")
	assert.Equal(t, rec.Body.Len(), 0)
}

func TestApplyPostponedWriteSerializesJSON(t *testing.T) {
	w, rec := newFakeWriter(false)

	model := NewModel()
	model.HasPostponedWrite = true
	model.PostponedWrite = &PostponedWrite{
		Payload:   map[string]any{"name": "Ada"},
		MediaType: "application/json",
	}

	err := Apply(w, model)
	assert.NilError(t, err)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, rec.Body.String(), `{"name":"Ada"}`)
}

func TestApplyPostponedWriteErrorCodeFails(t *testing.T) {
	w, _ := newFakeWriter(false)

	model := NewModel()
	model.HasPostponedWrite = true
	model.PostponedWrite = &PostponedWrite{ErrorCode: 42}

	err := Apply(w, model)
	assert.ErrorContains(t, err, "postponed write failed")
}
