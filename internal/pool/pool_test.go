package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kestrun/kestrun/internal/sharedstate"
	"gotest.tools/v3/assert"
)

type fakeContext struct {
	id     int
	closed bool
	seen   map[string]any
}

func (c *fakeContext) Reset(snapshot map[string]any) error {
	c.seen = snapshot

	return nil
}

func (c *fakeContext) Close() error {
	c.closed = true

	return nil
}

func newFakeFactory() (Factory, *int32) {
	var counter int32

	return func() (Context, error) {
		id := atomic.AddInt32(&counter, 1)

		return &fakeContext{id: int(id)}, nil
	}, &counter
}

func TestLeaseCreatesUpToMaxThenBlocks(t *testing.T) {
	factory, counter := newFakeFactory()
	shared := sharedstate.New()
	p := New(2, factory, shared, nil)

	ctx := context.Background()

	first, err := p.Lease(ctx)
	assert.NilError(t, err)

	second, err := p.Lease(ctx)
	assert.NilError(t, err)

	assert.Equal(t, *counter, int32(2))

	leaseCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = p.Lease(leaseCtx)
	assert.Assert(t, errors.Is(err, context.DeadlineExceeded))

	p.Release(first, true)
	p.Release(second, true)
}

func TestReleaseUnhealthyDestroysContext(t *testing.T) {
	factory, counter := newFakeFactory()
	shared := sharedstate.New()
	p := New(1, factory, shared, nil)

	c, err := p.Lease(context.Background())
	assert.NilError(t, err)

	fake := c.(*fakeContext)
	p.Release(c, false)
	assert.Assert(t, fake.closed)

	c2, err := p.Lease(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, *counter, int32(2))

	p.Release(c2, true)
}

func TestLeaseSeedsFromSharedStateSnapshot(t *testing.T) {
	factory, _ := newFakeFactory()
	shared := sharedstate.New()
	shared.Set("region", "eu")

	p := New(1, factory, shared, nil)

	c, err := p.Lease(context.Background())
	assert.NilError(t, err)

	fake := c.(*fakeContext)
	assert.Equal(t, fake.seen["region"], "eu")

	shared.Set("region", "us")
	assert.Equal(t, fake.seen["region"], "eu")

	p.Release(c, true)
}

func TestReleaseOnAlreadyReleasedContextIsNoOp(t *testing.T) {
	factory, counter := newFakeFactory()
	shared := sharedstate.New()
	p := New(1, factory, shared, nil)

	c, err := p.Lease(context.Background())
	assert.NilError(t, err)

	p.Release(c, true)
	p.Release(c, true)

	first, err := p.Lease(context.Background())
	assert.NilError(t, err)

	leaseCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Lease(leaseCtx)
	assert.Assert(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, *counter, int32(1))

	p.Release(first, true)
}

func TestStatsReportsInUseIdleAndWaiters(t *testing.T) {
	factory, _ := newFakeFactory()
	shared := sharedstate.New()
	p := New(1, factory, shared, nil)

	c, err := p.Lease(context.Background())
	assert.NilError(t, err)

	inUse, idle, waiters := p.Stats()
	assert.Equal(t, inUse, 1)
	assert.Equal(t, idle, 0)
	assert.Equal(t, waiters, 0)

	done := make(chan struct{})
	go func() {
		leaseCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, _ = p.Lease(leaseCtx)
		close(done)
	}()

	assert.Assert(t, waitFor(func() bool {
		_, _, waiters := p.Stats()
		return waiters == 1
	}, time.Second))

	<-done
	p.Release(c, true)

	inUse, idle, _ = p.Stats()
	assert.Equal(t, inUse, 0)
	assert.Equal(t, idle, 1)
}

func waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}

	return condition()
}

func TestShutdownRejectsFurtherLeases(t *testing.T) {
	factory, _ := newFakeFactory()
	shared := sharedstate.New()
	p := New(1, factory, shared, nil)

	c, err := p.Lease(context.Background())
	assert.NilError(t, err)
	p.Release(c, true)

	assert.NilError(t, p.Shutdown(context.Background()))

	_, err = p.Lease(context.Background())
	assert.Assert(t, errors.Is(err, ErrShutdown))
}
