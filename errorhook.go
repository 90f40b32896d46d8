package kestrun

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrun/kestrun/internal/delegate"
	"github.com/kestrun/kestrun/internal/errorresponse"
	"github.com/kestrun/kestrun/internal/pool"
	"github.com/kestrun/kestrun/internal/response"
	"github.com/kestrun/kestrun/internal/script"
	"github.com/kestrun/kestrun/internal/sharedstate"
)

// leaseTimeout bounds how long the hook waits for a Managed context. The
// failing request may itself be the one holding the pool's only Managed
// context (the route that raised the error, if it was Managed), so this
// must not simply reuse the request's own context unbounded.
const leaseTimeout = 2 * time.Second

// buildErrorResponseHook compiles source once (at Host-construction time)
// and returns an errorresponse.Hook that leases a context from managedPool
// per invocation, seeds it with the StatusCode, ErrorMessage and Exception
// globals (no Context binding is provided), and converts the script's
// return value via delegate.BuildResponseModel — the same map convention
// every Managed route's return value already follows.
func buildErrorResponseHook(source string, shared *sharedstate.Map, managedPool *pool.Pool) errorresponse.Hook {
	// Placeholders make the preamble declare the hook's globals, whose
	// values only arrive per invocation.
	placeholders := map[string]any{"StatusCode": nil, "ErrorMessage": nil, "Exception": nil}

	artifact, err := script.PrepareGoja(source, shared.Snapshot(), placeholders, nil)
	if err != nil {
		// A malformed errorResponseScript can't be recovered from later;
		// returning nil disables the hook so the default error body keeps
		// being written instead of panicking every request.
		return nil
	}

	return func(ctx context.Context, statusCode int, errorMessage string, cause error) (*response.Model, error) {
		if managedPool == nil {
			return nil, fmt.Errorf("errorResponseScript: no managed interpreter pool available")
		}

		leaseCtx, cancel := context.WithTimeout(ctx, leaseTimeout)
		defer cancel()

		runtime, err := managedPool.Lease(leaseCtx)
		if err != nil {
			return nil, fmt.Errorf("errorResponseScript: failed to lease interpreter: %w", err)
		}

		healthy := true
		defer func() { managedPool.Release(runtime, healthy) }()

		exception := ""
		if cause != nil {
			exception = cause.Error()
		}

		globals := map[string]any{
			"StatusCode":   statusCode,
			"ErrorMessage": errorMessage,
			"Exception":    exception,
		}

		result, err := artifact.Invoke(ctx, runtime, globals)
		if err != nil {
			healthy = false

			return nil, fmt.Errorf("errorResponseScript: invocation failed: %w", err)
		}

		return delegate.BuildResponseModel(result), nil
	}
}
