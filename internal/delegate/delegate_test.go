package delegate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gotest.tools/v3/assert"

	"github.com/kestrun/kestrun/internal/script"
	"github.com/kestrun/kestrun/schema"
)

type fakeRuntime struct {
	seen map[string]any
}

func (r *fakeRuntime) Reset(snapshot map[string]any) error {
	r.seen = snapshot

	return nil
}

func (r *fakeRuntime) Close() error { return nil }

type fakeArtifact struct {
	returnValue any
	gotGlobals  map[string]any
}

func (a *fakeArtifact) Invoke(_ context.Context, _ any, globals map[string]any) (any, error) {
	a.gotGlobals = globals

	return a.returnValue, nil
}

func (a *fakeArtifact) Diagnostics() []script.Diagnostic { return nil }

func newTestContext(method, path string, body *httptest.ResponseRecorder) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(body)
	c.Request = httptest.NewRequest(method, path, nil)

	return c
}

func TestHandleMissingLeaseWritesInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newTestContext(http.MethodGet, "/items/42", rec)

	d := &Delegate{}
	route := CompiledRoute{Descriptor: schema.RouteDescriptor{Method: "GET", Pattern: "/items/:id"}, Artifact: &fakeArtifact{}}

	d.Handle(c, route)
	assert.Equal(t, rec.Code, 500)
}

func TestHandleInvokesArtifactAndAppliesJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newTestContext(http.MethodGet, "/items/42", rec)
	c.Set(InterpreterKey, &fakeRuntime{})

	artifact := &fakeArtifact{returnValue: map[string]any{"body": map[string]any{"ok": true}}}
	route := CompiledRoute{
		Descriptor: schema.RouteDescriptor{Method: "GET", Pattern: "/items/:id"},
		Artifact:   artifact,
	}

	d := &Delegate{}
	d.Handle(c, route)

	assert.Equal(t, rec.Code, 200)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, rec.Body.String(), `{"ok":true}`)
}

type fakeMetrics struct {
	route    string
	observed bool
}

func (m *fakeMetrics) ObserveRequestDuration(_ context.Context, route string, _ float64) {
	m.observed = true
	m.route = route
}

func TestHandleRecordsRequestDuration(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newTestContext(http.MethodGet, "/items/42", rec)
	c.Set(InterpreterKey, &fakeRuntime{})

	artifact := &fakeArtifact{returnValue: map[string]any{"body": map[string]any{"ok": true}}}
	route := CompiledRoute{
		Descriptor: schema.RouteDescriptor{Method: "GET", Pattern: "/items/:id"},
		Artifact:   artifact,
	}

	metrics := &fakeMetrics{}
	d := &Delegate{Metrics: metrics}
	d.Handle(c, route)

	assert.Assert(t, metrics.observed)
	assert.Equal(t, metrics.route, "GET /items/:id")
}

func TestHandleRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newTestContext(http.MethodGet, "/go", rec)
	c.Set(InterpreterKey, &fakeRuntime{})

	artifact := &fakeArtifact{returnValue: map[string]any{"redirectUrl": "https://example.com"}}
	route := CompiledRoute{Descriptor: schema.RouteDescriptor{Method: "GET", Pattern: "/go"}, Artifact: artifact}

	d := &Delegate{}
	d.Handle(c, route)

	// gin's writer only records the status; the engine sends it once the
	// handler chain returns, so do the same before reading the recorder.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, rec.Code, http.StatusFound)
	assert.Equal(t, rec.Header().Get("Location"), "https://example.com")
}
