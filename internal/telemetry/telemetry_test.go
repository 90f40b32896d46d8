package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

type fakePool struct{ inUse, idle, waiters int }

func (f fakePool) Stats() (int, int, int) { return f.inUse, f.idle, f.waiters }

func TestMetricsExposesPoolGauges(t *testing.T) {
	m, err := New()
	assert.NilError(t, err)
	defer m.Shutdown(context.Background())

	m.RegisterPool("managed", fakePool{inUse: 2, idle: 1, waiters: 3})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	assert.Assert(t, strings.Contains(body, "kestrun_pool_in_use"))
	assert.Assert(t, strings.Contains(body, "kestrun_pool_idle"))
	assert.Assert(t, strings.Contains(body, "kestrun_pool_waiters"))
}

func TestMetricsRecordsRequestDuration(t *testing.T) {
	m, err := New()
	assert.NilError(t, err)
	defer m.Shutdown(context.Background())

	m.ObserveRequestDuration(context.Background(), "/greet/{name}", 0.042)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Assert(t, bytes.Contains(rec.Body.Bytes(), []byte("kestrun_request_duration")))
}

func TestNilMetricsIsSafeNoop(t *testing.T) {
	var m *Metrics
	m.RegisterPool("managed", fakePool{})
	m.ObserveRequestDuration(context.Background(), "/x", 0.1)
	assert.NilError(t, m.Shutdown(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	assert.Equal(t, rec.Code, http.StatusNotFound)
}
