package script

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestReferenceSetUnionDedupesByPath(t *testing.T) {
	a := NewReferenceSet()
	a.Add("fmt", "std/fmt")

	b := NewReferenceSet()
	b.Add("fmt2", "std/fmt")
	b.Add("strings", "std/strings")

	a.Union(b)

	assert.DeepEqual(t, a.Names(), []string{"fmt", "strings"})
}

func TestReferenceSetAddSkipsEmptyPath(t *testing.T) {
	s := NewReferenceSet()
	s.Add("anonymous", "")
	assert.Equal(t, len(s.Names()), 0)
}

func TestBuildCompilerOptionsUnionsAllSources(t *testing.T) {
	baseline := NewReferenceSet()
	baseline.Add("platform", "std/platform")

	caller := NewReferenceSet()
	caller.Add("caller", "pkg/caller")

	loaded := func() map[string]string {
		return map[string]string{"pkg/loaded": "loaded"}
	}

	opts := BuildCompilerOptions(baseline, caller, []BindingHint{{Name: "count", Value: 1}}, loaded)

	assert.DeepEqual(t, opts.Imports.Names(), []string{"caller", "int", "loaded", "platform"})
}

func TestGojaArtifactPrepareAndInvoke(t *testing.T) {
	artifact, err := PrepareGoja(`region + "-" + String(count)`, map[string]any{"region": "eu"}, map[string]any{"count": 3}, nil)
	assert.NilError(t, err)

	runtime, err := NewGojaRuntime()
	assert.NilError(t, err)

	out, err := artifact.Invoke(context.Background(), runtime, map[string]any{"region": "eu", "count": 3})
	assert.NilError(t, err)
	assert.Equal(t, out, "eu-3")
}

func TestGojaArtifactPreambleDeclaresCompilerOptionImports(t *testing.T) {
	imports := NewReferenceSet()
	imports.Add("helper", "pkg/helper")

	artifact, err := PrepareGoja(`typeof helper`, nil, nil, &CompilerOptions{Imports: imports})
	assert.NilError(t, err)

	runtime, err := NewGojaRuntime()
	assert.NilError(t, err)

	out, err := artifact.Invoke(context.Background(), runtime, map[string]any{})
	assert.NilError(t, err)
	assert.Equal(t, out, "undefined")

	out, err = artifact.Invoke(context.Background(), runtime, map[string]any{"helper": "loaded"})
	assert.NilError(t, err)
	assert.Equal(t, out, "string")
}

func TestGojaArtifactPrepareCompileError(t *testing.T) {
	_, err := PrepareGoja(`this is not valid javascript {{{`, nil, nil, nil)
	assert.Assert(t, err != nil)

	var compileErr *CompileError
	assert.Assert(t, errors.As(err, &compileErr))
}

func TestGojaArtifactInvokeWrongRuntimeType(t *testing.T) {
	artifact, err := PrepareGoja(`1`, nil, nil, nil)
	assert.NilError(t, err)

	_, err = artifact.Invoke(context.Background(), "not-a-goja-runtime", nil)
	assert.ErrorContains(t, err, "non-goja runtime")
}
