package script

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"
)

func TestExprArtifactPrepareAndInvoke(t *testing.T) {
	artifact, err := PrepareExprAlt(`region + "-" + string(count)`, map[string]any{"region": "eu"}, map[string]any{"count": 3})
	assert.NilError(t, err)

	runtime, err := NewExprRuntime()
	assert.NilError(t, err)
	assert.NilError(t, runtime.Reset(map[string]any{"region": "eu", "count": 3}))

	out, err := artifact.Invoke(context.Background(), runtime, nil)
	assert.NilError(t, err)
	assert.Equal(t, out, "eu-3")
}

func TestExprArtifactInvokeCancelledContext(t *testing.T) {
	artifact, err := PrepareExprAlt(`1`, nil, nil)
	assert.NilError(t, err)

	runtime, err := NewExprRuntime()
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = artifact.Invoke(ctx, runtime, nil)
	assert.ErrorContains(t, err, "not started")
}

func TestExprArtifactInvokeWrongRuntimeType(t *testing.T) {
	artifact, err := PrepareExprAlt(`1`, nil, nil)
	assert.NilError(t, err)

	_, err = artifact.Invoke(context.Background(), "not-an-expr-runtime", nil)
	assert.ErrorContains(t, err, "non-expr runtime")
}
