package kestrun

import (
	"log/slog"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/kestrun/kestrun/internal/errorresponse"
	"github.com/kestrun/kestrun/internal/script"
	"github.com/kestrun/kestrun/schema"
)

// options configures a Host, built up by applying Option values over
// defaultOptions, grounded on the teacher's connector/types.go
// `options`/`Option`/`With...` shape.
type options struct {
	poolSize                int
	objects                 map[string]schema.ObjectType
	tracer                  oteltrace.Tracer
	hasUpstreamErrorHandler bool
	errorHook               errorresponse.Hook
	loadedLibraries         script.LoadedLibraryLister
	logger                  *slog.Logger
	hostConfig              *HostConfig
}

var defaultOptions = options{
	poolSize: 8,
}

// Option is an interface to set custom Host options.
type Option func(*options)

// WithPoolSize sets how many concurrently-leased interpreter contexts
// each guest-language family's pool allows, per §4.4's size bound.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithObjectTypes registers the named object types C2/C3 resolve
// schema.NamedType references against.
func WithObjectTypes(objects map[string]schema.ObjectType) Option {
	return func(o *options) {
		o.objects = objects
	}
}

// WithTracer sets the tracer the request delegate (C6) starts a span on
// for each of its steps.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithUpstreamErrorHandler declares that the host's gin engine already
// has error-handling middleware registered, so C8 rethrows
// script-runtime-failure instead of writing a default body for it.
func WithUpstreamErrorHandler() Option {
	return func(o *options) {
		o.hasUpstreamErrorHandler = true
	}
}

// WithErrorResponseHook registers the errorResponseScript override C8
// runs before falling back to its default body, per §4.8.
func WithErrorResponseHook(hook errorresponse.Hook) Option {
	return func(o *options) {
		o.errorHook = hook
	}
}

// WithLoadedLibraryLister supplies the Managed family's compiler-options
// step 3 with the set of currently-loaded libraries, per §4.5.
func WithLoadedLibraryLister(lister script.LoadedLibraryLister) Option {
	return func(o *options) {
		o.loadedLibraries = lister
	}
}

// WithLogger sets the *slog.Logger threaded through the interpreter pools
// and the request delegate, per §10.1. When unset, NewHost builds one via
// internal/logging.NewLogger("kestrun").
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHostConfig applies a decoded HostConfig's fields: InterpreterPoolMax
// overrides poolSize, and a non-empty ErrorResponseScript is compiled and
// wired as the error-response hook, per §10.3.
func WithHostConfig(cfg *HostConfig) Option {
	return func(o *options) {
		o.hostConfig = cfg

		if cfg.InterpreterPoolMax > 0 {
			o.poolSize = cfg.InterpreterPoolMax
		}
	}
}
