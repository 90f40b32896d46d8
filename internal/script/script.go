// Package script implements the script compiler/preparer (C5): given
// route source text plus binding type hints, it produces a reusable
// compiled artifact per guest-language family, per §4.5.
package script

import (
	"context"
	"fmt"
	"strings"
)

// Diagnostic is one compiler message, with enough position information to
// map back to the user's source line.
type Diagnostic struct {
	Severity string // "error" or "warning"
	Message  string
	Line     int
	Column   int
}

func (d Diagnostic) String() string {
	if d.Line <= 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}

	return fmt.Sprintf("%s:%d:%d: %s", d.Severity, d.Line, d.Column, d.Message)
}

// CompileError is raised when preparation collects one or more error-level
// diagnostics, per §4.5 step 4 ("raise a compilation failure containing
// the formatted diagnostic list").
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.String())
	}

	return "script compilation failed:\n" + strings.Join(lines, "\n")
}

// Artifact is the reusable, shared-immutable callable produced by
// preparation. Invoke takes the per-request globals (current request
// context plus per-request bindings) and returns the script's result.
type Artifact interface {
	// Invoke runs the artifact on runtime, which must be the leased pool
	// context of this artifact's own family (*LuaRuntime, *GojaRuntime or
	// *ExprRuntime); ctx carries the request's cancellation.
	Invoke(ctx context.Context, runtime any, globals map[string]any) (any, error)
	// Diagnostics returns the warning-level diagnostics collected during
	// preparation (empty when preparation produced none).
	Diagnostics() []Diagnostic
}

// BindingHint describes one name the preamble must declare, derived from
// a shared-state/locals snapshot entry per §4.5 step 2.
type BindingHint struct {
	Name  string
	Value any
}

// Snapshot merges shared-state values with route-level locals, locals
// overriding on case-insensitive key collision, per §4.5 step 1.
func Snapshot(shared map[string]any, locals map[string]any) []BindingHint {
	merged := make(map[string]any, len(shared)+len(locals))
	casing := make(map[string]string, len(shared)+len(locals))

	apply := func(src map[string]any) {
		for k, v := range src {
			key := strings.ToLower(k)
			casing[key] = k
			merged[key] = v
		}
	}
	apply(shared)
	apply(locals)

	hints := make([]BindingHint, 0, len(merged))
	for key, value := range merged {
		hints = append(hints, BindingHint{Name: casing[key], Value: value})
	}

	return hints
}

// FormatTypeName derives a friendly type name for a preamble declaration
// from a Go runtime value, per §4.5 step 2 ("format a friendly type name
// ... falling back to a base object type for unformattable inputs").
func FormatTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "any"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int32, int64:
		return "int"
	case float32, float64:
		return "float"
	case []any:
		return "[]any"
	case map[string]any:
		return "map[string]any"
	default:
		return "any"
	}
}
