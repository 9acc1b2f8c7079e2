// Package metrics counts and times backend calls with Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	Registry *prometheus.Registry
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Events   *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktracker_backend_calls_total",
				Help: "Total backend calls by component, operation and outcome",
			},
			[]string{"component", "op", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tasktracker_backend_call_duration_seconds",
				Help:    "Backend call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component", "op"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktracker_subscription_events_total",
				Help: "Total events delivered by subscriptions",
			},
			[]string{"component"},
		),
	}
	m.Registry.MustRegister(m.Calls, m.Duration, m.Events)
	m.Registry.MustRegister(collectors.NewGoCollector())
	return m
}

// observe records one call.
func (m *Metrics) observe(component, op string, start time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Calls.WithLabelValues(component, op, outcome).Inc()
	m.Duration.WithLabelValues(component, op).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve serves /metrics on addr until ctx ends.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
