package script

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprRuntime is the pool.Context implementation for the ManagedAlt
// family. expr programs are stateless relative to a single environment
// map, so the runtime carries no native handle beyond the last globals
// snapshot used for Reset bookkeeping.
type ExprRuntime struct {
	env map[string]any
}

// NewExprRuntime constructs a fresh ManagedAlt runtime for the pool's
// Factory.
func NewExprRuntime() (*ExprRuntime, error) {
	return &ExprRuntime{env: make(map[string]any)}, nil
}

// Reset replaces the runtime's environment with snapshot.
func (r *ExprRuntime) Reset(snapshot map[string]any) error {
	r.env = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		r.env[k] = v
	}

	return nil
}

// Close is a no-op: expr programs hold no native resources.
func (r *ExprRuntime) Close() error { return nil }

// exprModuleTemplate wraps user source with a single marker line, per
// §4.5 step 5. expr has no function-declaration syntax of its own — a
// program is always one (possibly multi-statement, `;`-separated)
// expression whose final value is the result — so the "module/function
// template" collapses to this marker line. No result type is declared,
// and the compile-error diagnostic PrepareExprAlt returns always carries
// Line 1; expr's own error position, inside the message, still counts
// the marker line.
const exprModuleTemplate = "// kestrun:managedAlt\n%s"

// ExprArtifact is the ManagedAlt family's compiled artifact: a compiled
// expr program wrapped in the fixed module template.
type ExprArtifact struct {
	program     *vm.Program
	diagnostics []Diagnostic
}

// PrepareExprAlt implements §4.5 step 5 for the ManagedAlt family: wrap
// the user source in the fixed template, declare the environment type
// from shared-state/locals bindings, and compile.
func PrepareExprAlt(source string, shared, locals map[string]any) (*ExprArtifact, error) {
	hints := Snapshot(shared, locals)

	env := make(map[string]any, len(hints))
	for _, hint := range hints {
		env[hint.Name] = hint.Value
	}

	wrapped := fmt.Sprintf(exprModuleTemplate, source)

	program, err := expr.Compile(wrapped, expr.Env(env))
	if err != nil {
		return nil, &CompileError{Diagnostics: []Diagnostic{
			{Severity: "error", Message: err.Error(), Line: 1},
		}}
	}

	return &ExprArtifact{program: program}, nil
}

func (a *ExprArtifact) Diagnostics() []Diagnostic { return a.diagnostics }

// Invoke runs the compiled expr program against globals, merged over the
// runtime's current environment snapshot.
func (a *ExprArtifact) Invoke(ctx context.Context, runtime any, globals map[string]any) (any, error) {
	er, ok := runtime.(*ExprRuntime)
	if !ok {
		return nil, fmt.Errorf("managedAlt artifact invoked with non-expr runtime %T", runtime)
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("managedAlt script not started: %w", ctx.Err())
	}

	env := make(map[string]any, len(er.env)+len(globals))
	for k, v := range er.env {
		env[k] = v
	}
	for k, v := range globals {
		env[k] = v
	}

	result, err := expr.Run(a.program, env)
	if err != nil {
		return nil, fmt.Errorf("managedAlt script execution failed: %w", err)
	}

	return result, nil
}
