// Package pool implements the interpreter-instance pool (C4): it leases
// pre-initialized execution contexts to requests, recycles them on
// return, and enforces a size bound and cancellation, per §4.4.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kestrun/kestrun/internal/sharedstate"
)

// ErrShutdown is returned by Lease once Shutdown has been called.
var ErrShutdown = errors.New("pool: shut down")

// Context is one leased execution environment (a runspace/script host).
// Implementations wrap a specific guest language's native interpreter
// state (e.g. an *lua.LState or a *goja.Runtime).
type Context interface {
	// Reset seeds the context's global bindings from snapshot and clears
	// any per-request locals left over from a previous lease, per §4.4's
	// "every leased context starts each request with the current
	// shared-state snapshot" invariant.
	Reset(snapshot map[string]any) error
	// Close releases the context's native resources; called when the
	// context is destroyed rather than returned to the pool.
	Close() error
}

// Factory constructs one fresh Context.
type Factory func() (Context, error)

// Pool is a process-wide, size-bounded pool of interpreter contexts.
type Pool struct {
	factory Factory
	shared  *sharedstate.Map
	logger  Logger
	max     int

	mu       sync.Mutex
	created  int
	shutdown bool
	waiting  int
	idle     chan Context
	leased   map[Context]bool
}

// New creates a pool bounded at max concurrently-allocated contexts,
// sharing shared for per-lease snapshots.
func New(max int, factory Factory, shared *sharedstate.Map, logger Logger) *Pool {
	if logger == nil {
		logger = NoopLogger{}
	}

	return &Pool{
		factory: factory,
		shared:  shared,
		logger:  logger,
		max:     max,
		idle:    make(chan Context, max),
		leased:  make(map[Context]bool),
	}
}

// Lease returns an idle context, creating one if the pool has not yet
// reached its size bound, or blocking until one is released or ctx is
// cancelled. The returned context's globals are already seeded from the
// current shared-state snapshot.
func (p *Pool) Lease(ctx context.Context) (Context, error) {
	select {
	case c, ok := <-p.idle:
		if !ok {
			return nil, ErrShutdown
		}

		return p.prepare(c)
	default:
	}

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()

		return nil, ErrShutdown
	}

	if p.created < p.max {
		p.created++
		p.mu.Unlock()

		c, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()

			return nil, fmt.Errorf("pool: failed to create context: %w", err)
		}

		p.logger.Debug("interpreter_context_created", "created", p.created, "max", p.max)

		return p.prepare(c)
	}
	p.mu.Unlock()

	p.mu.Lock()
	p.waiting++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.waiting--
		p.mu.Unlock()
	}()

	select {
	case c, ok := <-p.idle:
		if !ok {
			return nil, ErrShutdown
		}

		return p.prepare(c)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats reports the pool's current occupancy: contexts currently leased
// out, contexts sitting idle, and requests blocked in Lease's final
// blocking wait, per §10.2's pool gauges.
func (p *Pool) Stats() (inUse, idle, waiters int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.leased), len(p.idle), p.waiting
}

func (p *Pool) prepare(c Context) (Context, error) {
	if err := c.Reset(p.shared.Snapshot()); err != nil {
		p.destroy(c)

		return nil, fmt.Errorf("pool: failed to reset context: %w", err)
	}

	p.mu.Lock()
	p.leased[c] = true
	p.mu.Unlock()

	return c, nil
}

// Release returns c to the idle pool when healthy is true; otherwise it
// destroys c, per §4.4's "contexts that raise unrecoverable errors...are
// destroyed, not returned". Release must always be called, including on
// panic/exception paths. Calling Release on a context that has already
// been released (or was never leased) is a no-op, so a handler that
// double-releases on an error path can't hand the same context out to
// two concurrent leases.
func (p *Pool) Release(c Context, healthy bool) {
	p.mu.Lock()
	if !p.leased[c] {
		p.mu.Unlock()

		return
	}
	delete(p.leased, c)
	p.mu.Unlock()

	if !healthy {
		p.destroy(c)

		return
	}

	p.mu.Lock()
	shutdown := p.shutdown
	p.mu.Unlock()

	if shutdown {
		p.destroy(c)

		return
	}

	select {
	case p.idle <- c:
	default:
		p.destroy(c)
	}
}

func (p *Pool) destroy(c Context) {
	if err := c.Close(); err != nil {
		p.logger.Warn("interpreter_context_close_failed", "error", err.Error())
	}

	p.mu.Lock()
	p.created--
	p.mu.Unlock()
}

// Shutdown closes every idle context and blocks further leases. Contexts
// currently leased out are destroyed as they are Released rather than
// recycled. Idle contexts are destroyed concurrently via errgroup.WithContext,
// so one context's slow native teardown doesn't serialize behind
// another's, per §12's graceful-shutdown grounding. Shutdown does not
// wait for contexts still on lease.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()

		return nil
	}
	p.shutdown = true
	p.mu.Unlock()

	close(p.idle)

	group, _ := errgroup.WithContext(ctx)

	for c := range p.idle {
		c := c
		group.Go(func() error {
			p.destroy(c)

			return nil
		})
	}

	return group.Wait()
}
