package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LuaRuntime is the pool.Context implementation for the Shell family: one
// *lua.LState per leased interpreter context.
type LuaRuntime struct {
	State *lua.LState
}

// NewLuaRuntime constructs a fresh Lua state for the pool's Factory.
func NewLuaRuntime() (*LuaRuntime, error) {
	return &LuaRuntime{State: lua.NewState()}, nil
}

// Reset clears per-request globals by re-opening the base library table
// and reseeding it from snapshot, per the Shell family's "bindings are
// injected by setting session variables on the leased context before
// Invoke" rule.
func (r *LuaRuntime) Reset(snapshot map[string]any) error {
	for name, value := range snapshot {
		r.State.SetGlobal(name, goToLua(r.State, value))
	}

	return nil
}

// Close releases the underlying Lua state.
func (r *LuaRuntime) Close() error {
	r.State.Close()

	return nil
}

// ShellArtifact is the Shell family's compiled artifact: the source text
// itself. Arguments and every other binding arrive as Invoke's globals.
type ShellArtifact struct {
	Source string
}

// PrepareShell builds a Shell-family artifact. There is no separate
// compile step; syntax is only checked at Invoke time when the source is
// loaded into the leased state.
func PrepareShell(source string) *ShellArtifact {
	return &ShellArtifact{Source: source}
}

func (a *ShellArtifact) Diagnostics() []Diagnostic { return nil }

// Invoke sets each global binding on the leased Lua state, loads and runs
// the source, and returns the value the script assigned to the global
// "result" (the Shell family convention for a returned value).
func (a *ShellArtifact) Invoke(ctx context.Context, runtime any, globals map[string]any) (any, error) {
	lr, ok := runtime.(*LuaRuntime)
	if !ok {
		return nil, fmt.Errorf("shell artifact invoked with non-Lua runtime %T", runtime)
	}

	state := lr.State
	state.SetContext(ctx)

	for name, value := range globals {
		state.SetGlobal(name, goToLua(state, value))
	}

	// Clear any result left on this state by an earlier request.
	state.SetGlobal("result", lua.LNil)

	if err := state.DoString(a.Source); err != nil {
		return nil, fmt.Errorf("shell script execution failed: %w", err)
	}

	result := state.GetGlobal("result")
	if result == lua.LNil {
		return nil, nil
	}

	return luaToGo(result), nil
}

func goToLua(state *lua.LState, value any) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case []any:
		tbl := state.NewTable()
		for i, item := range v {
			tbl.RawSetInt(i+1, goToLua(state, item))
		}

		return tbl
	case map[string]any:
		tbl := state.NewTable()
		for key, item := range v {
			tbl.RawSetString(key, goToLua(state, item))
		}

		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

func luaToGo(value lua.LValue) any {
	switch v := value.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if v.Len() > 0 {
			result := make([]any, 0, v.Len())
			v.ForEach(func(_ lua.LValue, item lua.LValue) {
				result = append(result, luaToGo(item))
			})

			return result
		}

		result := make(map[string]any)
		v.ForEach(func(key lua.LValue, item lua.LValue) {
			result[key.String()] = luaToGo(item)
		})

		return result
	default:
		return v.String()
	}
}
