// Package kestrun wires the request delegate (C6), interpreter pool
// (C4), and the rest of the core components onto a gin engine: the host
// registration API a process embeds to serve script-backed routes.
package kestrun

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/kestrun/kestrun/internal/binder"
	"github.com/kestrun/kestrun/internal/contenttype"
	"github.com/kestrun/kestrun/internal/delegate"
	"github.com/kestrun/kestrun/internal/errorresponse"
	"github.com/kestrun/kestrun/internal/logging"
	"github.com/kestrun/kestrun/internal/pool"
	"github.com/kestrun/kestrun/internal/script"
	"github.com/kestrun/kestrun/internal/sharedstate"
	"github.com/kestrun/kestrun/internal/telemetry"
	"github.com/kestrun/kestrun/schema"
)

// Host owns the gin engine, the per-guest-language interpreter pools,
// and the shared-state map every leased context is seeded from.
type Host struct {
	Engine *gin.Engine

	shared   *sharedstate.Map
	pools    map[schema.GuestLanguage]*pool.Pool
	delegate *delegate.Delegate
	metrics  *telemetry.Metrics
	opts     options
}

// NewHost constructs a Host with one interpreter pool per guest-language
// family, each bounded at opts.poolSize, sharing one process-wide
// shared-state map (§5).
func NewHost(opts ...Option) *Host {
	cfg := defaultOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = logging.NewLogger("kestrun")
	}

	adapter := logging.NewAdapter(cfg.logger)

	// telemetry.New registers its own fresh Prometheus registry, so a
	// failure here (extremely unlikely short of resource exhaustion) is
	// logged and degrades to a nil Metrics rather than failing NewHost,
	// whose signature predates this wiring and has no error return.
	metrics, err := telemetry.New()
	if err != nil {
		adapter.Error("failed to construct metrics, continuing without them", "error", err.Error())
		metrics = nil
	}

	shared := sharedstate.New()

	pools := map[schema.GuestLanguage]*pool.Pool{
		schema.Shell: pool.New(cfg.poolSize, func() (pool.Context, error) {
			return script.NewLuaRuntime()
		}, shared, adapter),
		schema.Managed: pool.New(cfg.poolSize, func() (pool.Context, error) {
			return script.NewGojaRuntime()
		}, shared, adapter),
		schema.ManagedAlt: pool.New(cfg.poolSize, func() (pool.Context, error) {
			return script.NewExprRuntime()
		}, shared, adapter),
	}

	for language, p := range pools {
		metrics.RegisterPool(string(language), p)
	}

	errorHook := cfg.errorHook
	if errorHook == nil && cfg.hostConfig != nil && cfg.hostConfig.ErrorResponseScript != "" {
		errorHook = buildErrorResponseHook(cfg.hostConfig.ErrorResponseScript, shared, pools[schema.Managed])
	}

	d := &delegate.Delegate{
		Shared:           shared,
		Decoders:         binder.NewDefaultRegistry(cfg.objects),
		MultipartDecoder: contenttype.NewMultipartFormDecoder(cfg.objects),
		Tracer:           cfg.tracer,
		Logger:           adapter,
		Metrics:          metrics,
		Errors: errorresponse.New(errorresponse.Config{
			HasUpstreamHandler: cfg.hasUpstreamErrorHandler,
			Hook:               errorHook,
		}),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	return &Host{
		Engine:   engine,
		shared:   shared,
		pools:    pools,
		delegate: d,
		metrics:  metrics,
		opts:     cfg,
	}
}

// SharedState exposes the process-wide shared-state map (§5) for the
// embedding process to call Set on.
func (h *Host) SharedState() *sharedstate.Map {
	return h.shared
}

// Run starts the gin engine listening at addr, mirroring the
// gin-server example's `r.Run(":" + port)`.
func (h *Host) Run(addr string) error {
	return h.Engine.Run(addr)
}

// Shutdown releases every guest-language family's interpreter pool
// concurrently via errgroup.WithContext, per §12's graceful-shutdown
// grounding, then releases the metrics provider.
func (h *Host) Shutdown(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, p := range h.pools {
		p := p
		group.Go(func() error {
			if err := p.Shutdown(groupCtx); err != nil {
				return fmt.Errorf("failed to shut down interpreter pool: %w", err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	return h.metrics.Shutdown(ctx)
}
