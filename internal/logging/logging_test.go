package logging

import (
	"net/http"
	"testing"

	"gotest.tools/v3/assert"
)

func TestMaskStringByLength(t *testing.T) {
	assert.Equal(t, MaskString("abc"), "***")
	assert.Equal(t, MaskString("abcdefgh"), "a*******")
	assert.Equal(t, MaskString("abcdefghijklmnop"), "abc*******(16)")
}

func TestMaskHeadersOnlyMasksSensitiveNames(t *testing.T) {
	headers := http.Header{
		"Authorization": {"Bearer abcdefghijklmnop"},
		"Cookie":        {"session=abcdefghijklmnop"},
		"X-Trace":       {"abc123"},
	}

	masked := MaskHeaders(headers)

	assert.Assert(t, masked.Get("Authorization") != headers.Get("Authorization"))
	assert.Assert(t, masked.Get("Cookie") != headers.Get("Cookie"))
	assert.Equal(t, masked.Get("X-Trace"), "abc123")
}

func TestAdapterNilLoggerDiscardsCalls(t *testing.T) {
	var a *Adapter
	a.Debug("noop")

	adapter := NewAdapter(nil)
	adapter.Info("noop", "k", "v")
}
