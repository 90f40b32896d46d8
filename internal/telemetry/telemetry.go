// Package telemetry wires the interpreter pool's occupancy and the
// request delegate's latency onto OpenTelemetry metrics, exported via a
// per-instance Prometheus registry, per §10.2. One Metrics belongs to one
// Host: a fresh prometheus.Registry avoids the duplicate-registration
// panic that the package-level default registry would hit across the
// repo's several NewHost-per-test call sites.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func attrLanguage(language string) attribute.KeyValue {
	return attribute.String("guest_language", language)
}

func attrRoute(route string) attribute.KeyValue {
	return attribute.String("route", route)
}

// PoolStatter is the subset of *pool.Pool's surface Metrics needs to
// publish occupancy gauges, kept narrow so this package never imports
// internal/pool.
type PoolStatter interface {
	Stats() (inUse, idle, waiters int)
}

// Metrics is the process's metrics surface: pool occupancy gauges plus a
// per-route request-duration histogram, scraped over HTTP.
type Metrics struct {
	registry  *prometheus.Registry
	meter     metric.Meter
	provider  *sdkmetric.MeterProvider
	duration  metric.Float64Histogram
	inUse     metric.Int64ObservableGauge
	idleGauge metric.Int64ObservableGauge
	waiters   metric.Int64ObservableGauge

	pools map[string]PoolStatter
}

// New constructs a Metrics instance backed by its own Prometheus registry
// and OTel SDK meter provider.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("kestrun")

	duration, err := meter.Float64Histogram(
		"kestrun.request.duration",
		metric.WithDescription("Route request handling duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build request duration histogram: %w", err)
	}

	m := &Metrics{
		registry: registry,
		meter:    meter,
		provider: provider,
		duration: duration,
		pools:    make(map[string]PoolStatter),
	}

	m.inUse, err = meter.Int64ObservableGauge(
		"kestrun.pool.in_use",
		metric.WithDescription("Leased interpreter contexts per guest language"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build in_use gauge: %w", err)
	}

	m.idleGauge, err = meter.Int64ObservableGauge(
		"kestrun.pool.idle",
		metric.WithDescription("Idle interpreter contexts per guest language"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build idle gauge: %w", err)
	}

	m.waiters, err = meter.Int64ObservableGauge(
		"kestrun.pool.waiters",
		metric.WithDescription("Requests blocked waiting for an interpreter context"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build waiters gauge: %w", err)
	}

	_, err = meter.RegisterCallback(m.observe, m.inUse, m.idleGauge, m.waiters)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to register pool gauge callback: %w", err)
	}

	return m, nil
}

// RegisterPool adds p's occupancy to the gauge callback under the given
// guest-language label.
func (m *Metrics) RegisterPool(language string, p PoolStatter) {
	if m == nil {
		return
	}

	m.pools[language] = p
}

func (m *Metrics) observe(_ context.Context, o metric.Observer) error {
	for language, p := range m.pools {
		inUse, idle, waiters := p.Stats()
		attrs := metric.WithAttributes(attrLanguage(language))

		o.ObserveInt64(m.inUse, int64(inUse), attrs)
		o.ObserveInt64(m.idleGauge, int64(idle), attrs)
		o.ObserveInt64(m.waiters, int64(waiters), attrs)
	}

	return nil
}

// ObserveRequestDuration records seconds against route in the request
// duration histogram.
func (m *Metrics) ObserveRequestDuration(ctx context.Context, route string, seconds float64) {
	if m == nil {
		return
	}

	m.duration.Record(ctx, seconds, metric.WithAttributes(attrRoute(route)))
}

// Handler returns the HTTP handler that scrapes m's Prometheus registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown releases the underlying meter provider's resources.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}

	return m.provider.Shutdown(ctx)
}
