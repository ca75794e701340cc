// SPDX-License-Identifier: MPL-2.0

// Package metrics records dispatch outcomes with Prometheus collectors and
// exports them in the node-exporter textfile format.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/invowk/tusks/pkg/dispatch"
)

// OutcomeError labels invocations whose handler failed.
const OutcomeError = "error"

// Observer is a dispatch.Observer backed by its own registry.
type Observer struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	exitCode    *prometheus.GaugeVec
}

var _ dispatch.Observer = (*Observer)(nil)

// NewObserver creates an observer with a fresh registry.
func NewObserver() *Observer {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Observer{
		registry: reg,
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tusks_invocations_total",
				Help: "Total number of operation invocations",
			},
			[]string{"unit", "operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tusks_invocation_duration_seconds",
				Help:    "Time spent in operation handlers",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"unit"},
		),
		exitCode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tusks_invocation_exit_code",
				Help: "Result code of the last invocation of an operation",
			},
			[]string{"unit", "operation"},
		),
	}
}

// Observe implements dispatch.Observer.
func (o *Observer) Observe(ev dispatch.Event) {
	op := dispatch.PathKey(ev.Path...)
	outcome := ev.Result.Outcome.String()
	if ev.Err != nil {
		outcome = OutcomeError
	}
	o.invocations.WithLabelValues(ev.Unit, op, outcome).Inc()
	o.duration.WithLabelValues(ev.Unit).Observe(ev.Duration.Seconds())
	if ev.Err == nil {
		o.exitCode.WithLabelValues(ev.Unit, op).Set(float64(ev.Result.ExitCode()))
	}
}

// WriteTextfile writes the current metrics to path. The file is replaced
// atomically, so a collector never reads a partial file.
func (o *Observer) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics textfile path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, o.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
