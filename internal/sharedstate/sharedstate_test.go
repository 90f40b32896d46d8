package sharedstate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestSetGetCaseInsensitive(t *testing.T) {
	m := New()
	m.Set("ApiKey", "secret")

	v, ok := m.Get("apikey")
	assert.Assert(t, ok)
	assert.Equal(t, v, "secret")
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	m := New()
	m.Set("count", 1)

	snap := m.Snapshot()
	m.Set("count", 2)

	assert.Equal(t, snap["count"], 1)

	v, _ := m.Get("count")
	assert.Equal(t, v, 2)
}

func TestDeleteRemovesKey(t *testing.T) {
	m := New()
	m.Set("temp", "x")
	m.Delete("TEMP")

	_, ok := m.Get("temp")
	assert.Assert(t, !ok)
}
