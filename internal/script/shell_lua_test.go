package script

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"
)

func TestShellArtifactInvokeReturnsResultGlobal(t *testing.T) {
	runtime, err := NewLuaRuntime()
	assert.NilError(t, err)
	defer runtime.Close()

	artifact := PrepareShell(`result = name .. "!"`)

	out, err := artifact.Invoke(context.Background(), runtime, map[string]any{"name": "ada"})
	assert.NilError(t, err)
	assert.Equal(t, out, "ada!")
}

func TestShellArtifactInvokeWrongRuntimeType(t *testing.T) {
	artifact := PrepareShell(`result = 1`)

	_, err := artifact.Invoke(context.Background(), "not-a-lua-runtime", nil)
	assert.ErrorContains(t, err, "non-Lua runtime")
}

func TestShellArtifactInvokeSyntaxError(t *testing.T) {
	runtime, err := NewLuaRuntime()
	assert.NilError(t, err)
	defer runtime.Close()

	artifact := PrepareShell(`result = (`)

	_, err = artifact.Invoke(context.Background(), runtime, nil)
	assert.ErrorContains(t, err, "shell script execution failed")
}
