package kestrun

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kestrun/kestrun/internal/delegate"
	"github.com/kestrun/kestrun/internal/pool"
	"github.com/kestrun/kestrun/internal/script"
	"github.com/kestrun/kestrun/schema"
)

// RegisterRoute compiles route's script for its declared guest language
// and wires it onto the gin engine behind a lease/release middleware,
// per §4.5 (compile once) and §4.4 (lease per request).
func (h *Host) RegisterRoute(route schema.RouteDescriptor) error {
	if err := route.Validate(); err != nil {
		return fmt.Errorf("invalid route %s %s: %w", route.Method, route.Pattern, err)
	}

	artifact, err := h.compile(route)
	if err != nil {
		return fmt.Errorf("failed to compile route %s %s: %w", route.Method, route.Pattern, err)
	}

	compiledRoute := delegate.CompiledRoute{Descriptor: route, Artifact: artifact}

	p, ok := h.pools[route.GuestLanguage]
	if !ok {
		return fmt.Errorf("route %s %s: no interpreter pool for guest language %q", route.Method, route.Pattern, route.GuestLanguage)
	}

	h.Engine.Handle(route.Method, ginPattern(route.Pattern), h.leaseMiddleware(p), func(c *gin.Context) {
		h.delegate.Handle(c, compiledRoute)
	})

	return nil
}

// compile implements §4.5's per-family preparation.
func (h *Host) compile(route schema.RouteDescriptor) (script.Artifact, error) {
	switch route.GuestLanguage {
	case schema.Shell:
		return script.PrepareShell(route.Script), nil
	case schema.Managed:
		locals := withParameterPlaceholders(route.Locals, route.Parameters)
		hints := script.Snapshot(h.shared.Snapshot(), locals)

		compilerOptions := script.BuildCompilerOptions(script.NewReferenceSet(), script.NewReferenceSet(), hints, h.opts.loadedLibraries)

		return script.PrepareGoja(route.Script, h.shared.Snapshot(), locals, compilerOptions)
	case schema.ManagedAlt:
		locals := withParameterPlaceholders(route.Locals, route.Parameters)

		return script.PrepareExprAlt(route.Script, h.shared.Snapshot(), locals)
	default:
		return nil, fmt.Errorf("unknown guest language %q", route.GuestLanguage)
	}
}

// withParameterPlaceholders adds each parameter's name to locals (as a
// nil placeholder, if not already present) before compilation, so the
// Managed/ManagedAlt preamble declares a binding for every parameter C3
// will populate at request time, even though its value isn't known
// until a request arrives.
func withParameterPlaceholders(locals map[string]any, params []schema.ParameterDescriptor) map[string]any {
	result := make(map[string]any, len(locals)+len(params))
	for k, v := range locals {
		result[k] = v
	}

	for _, p := range params {
		if _, exists := result[p.Name]; !exists {
			result[p.Name] = nil
		}
	}

	return result
}

// leaseMiddleware implements §4.6 step 1's "placed there by upstream
// middleware at request start": it leases a context from p, stores it
// under delegate.InterpreterKey, and releases it once the handler chain
// finishes, healthy unless the delegate recorded an error via c.Error.
func (h *Host) leaseMiddleware(p *pool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		leased, err := p.Lease(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(503)

			return
		}

		c.Set(delegate.InterpreterKey, leased)

		c.Next()

		p.Release(leased, len(c.Errors) == 0)
	}
}

// ginPattern adapts a route pattern written in the `{name}` style used
// by §3's parameter descriptors to gin's `:name` path-parameter syntax.
func ginPattern(pattern string) string {
	result := make([]byte, 0, len(pattern))

	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			result = append(result, ':')
		case '}':
			// no-op: gin's pattern has no closing marker
		default:
			result = append(result, pattern[i])
		}
	}

	return string(result)
}
