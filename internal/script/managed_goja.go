package script

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"
)

// GojaRuntime is the pool.Context implementation for the Managed family:
// one *goja.Runtime per leased interpreter context.
type GojaRuntime struct {
	VM *goja.Runtime
}

// NewGojaRuntime constructs a fresh ECMAScript runtime for the pool's
// Factory.
func NewGojaRuntime() (*GojaRuntime, error) {
	return &GojaRuntime{VM: goja.New()}, nil
}

// Reset clears per-request bindings by reseeding globals from snapshot;
// goja has no cheap "new global scope" primitive short of constructing a
// fresh runtime, so stale per-request globals are overwritten rather than
// removed, matching the teacher's reuse-over-recreate pooling idiom.
func (r *GojaRuntime) Reset(snapshot map[string]any) error {
	for name, value := range snapshot {
		if err := r.VM.Set(name, value); err != nil {
			return fmt.Errorf("failed to seed global %q: %w", name, err)
		}
	}

	return nil
}

// Close is a no-op: goja runtimes hold no native resources beyond
// garbage-collected Go memory.
func (r *GojaRuntime) Close() error { return nil }

// ReferenceSet is a deduplicated-by-path collection of named library
// references/imports, unioned across the sources listed in §4.5 step 3.
type ReferenceSet struct {
	byPath map[string]string
}

// NewReferenceSet creates an empty set.
func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{byPath: make(map[string]string)}
}

// Add registers name at path if path is non-empty; references with no
// physical location are skipped, per §4.5 step 3.
func (s *ReferenceSet) Add(name, path string) {
	if path == "" {
		return
	}

	if _, exists := s.byPath[path]; !exists {
		s.byPath[path] = name
	}
}

// Union merges other into s, keeping s's mapping on path collision.
func (s *ReferenceSet) Union(other *ReferenceSet) {
	for path, name := range other.byPath {
		s.Add(name, path)
	}
}

// Names returns the registered reference names sorted for determinism.
func (s *ReferenceSet) Names() []string {
	names := make([]string, 0, len(s.byPath))
	for _, name := range s.byPath {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// CompilerOptions is the assembled union described by §4.5 step 3:
// baseline platform imports, caller-supplied imports, dynamic imports
// discovered from binding types, and every currently-loaded library with
// a physical location.
type CompilerOptions struct {
	Imports *ReferenceSet
}

// LoadedLibraryLister reports the libraries currently registered with the
// host process, standing in for ".NET AppDomain.CurrentDomain.GetAssemblies()"
// in this Go port; hosts with no meaningful notion of "currently loaded
// libraries" may supply a lister that always returns nil.
type LoadedLibraryLister func() map[string]string

// BuildCompilerOptions unions baseline, caller-supplied, and dynamic
// references with every currently loaded library, per §4.5 step 3. This
// intentionally maximizes the reference surface rather than minimizing
// it, per the §9 design note: later versions of a loaded library can
// silently change which symbols a script resolves against.
func BuildCompilerOptions(baseline, caller *ReferenceSet, dynamic []BindingHint, loaded LoadedLibraryLister) *CompilerOptions {
	opts := NewReferenceSet()
	opts.Union(baseline)
	opts.Union(caller)

	for _, hint := range dynamic {
		opts.Add(hint.Name, FormatTypeName(hint.Value))
	}

	if loaded != nil {
		for path, name := range loaded() {
			opts.Add(name, path)
		}
	}

	return &CompilerOptions{Imports: opts}
}

// GojaArtifact is the Managed family's compiled artifact: a parsed
// goja.Program plus the preamble's binding names, ready for repeated
// invocation with fresh globals.
type GojaArtifact struct {
	program     *goja.Program
	bindings    []string
	diagnostics []Diagnostic
}

// PrepareGoja implements §4.5 steps 1, 2, 3, and 4 for the Managed
// family: snapshot shared-state plus locals, build a preamble declaring
// each binding plus every name options unions in, concatenate with the
// user source, and compile.
func PrepareGoja(source string, shared, locals map[string]any, options *CompilerOptions) (*GojaArtifact, error) {
	hints := Snapshot(shared, locals)

	var preamble strings.Builder
	declared := make(map[string]bool, len(hints))
	names := make([]string, 0, len(hints))

	for _, hint := range hints {
		fmt.Fprintf(&preamble, "var %s = __kestrun_globals[%q];\n", hint.Name, hint.Name)
		names = append(names, hint.Name)
		declared[hint.Name] = true
	}

	// goja has no file-based import system to hand step 3's unioned
	// library references to, so the only form "maximize the chance the
	// script resolves" can take here is declaring each reference name as
	// a binding too: it resolves to whatever __kestrun_globals carries
	// for it at invoke time, or undefined rather than a ReferenceError,
	// if the request never supplied one.
	if options != nil && options.Imports != nil {
		for _, name := range options.Imports.Names() {
			if declared[name] {
				continue
			}

			fmt.Fprintf(&preamble, "var %s = __kestrun_globals[%q];\n", name, name)
			names = append(names, name)
			declared[name] = true
		}
	}

	unit := preamble.String() + source

	program, err := goja.Compile("route.js", unit, false)
	if err != nil {
		return nil, &CompileError{Diagnostics: []Diagnostic{
			{Severity: "error", Message: err.Error()},
		}}
	}

	return &GojaArtifact{program: program, bindings: names}, nil
}

func (a *GojaArtifact) Diagnostics() []Diagnostic { return a.diagnostics }

// Invoke runs the compiled program against the leased goja runtime,
// injecting globals (including __kestrun_globals, which the preamble
// destructures into per-request locals) before execution.
func (a *GojaArtifact) Invoke(ctx context.Context, runtime any, globals map[string]any) (any, error) {
	gr, ok := runtime.(*GojaRuntime)
	if !ok {
		return nil, fmt.Errorf("managed artifact invoked with non-goja runtime %T", runtime)
	}

	vm := gr.VM

	if err := vm.Set("__kestrun_globals", globals); err != nil {
		return nil, fmt.Errorf("failed to set managed globals: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("request cancelled")
		case <-done:
		}
	}()
	defer close(done)

	value, err := vm.RunProgram(a.program)
	if err != nil {
		return nil, fmt.Errorf("managed script execution failed: %w", err)
	}

	return value.Export(), nil
}
