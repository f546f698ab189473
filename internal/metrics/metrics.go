// Package metrics exports simulation counters in Prometheus format.
//
// The collector implements engine.Recorder and keeps its own registry, so
// several collectors can coexist in one process (tests, parallel searches).
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
)

// Collector accumulates per-tick outcomes. All methods are safe for
// concurrent use.
type Collector struct {
	registry *prometheus.Registry
	pulses   *prometheus.CounterVec
	ticks    *prometheus.CounterVec
	aborted  *prometheus.CounterVec
	tickSize prometheus.Histogram
}

var _ engine.Recorder = (*Collector)(nil)

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		pulses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_signals_total",
				Help: "Signals dequeued, by polarity.",
			},
			[]string{"polarity"},
		),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_ticks_total",
				Help: "Completed ticks, by trigger node.",
			},
			[]string{"trigger"},
		),
		aborted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_ticks_aborted_total",
				Help: "Ticks stopped early by an abort condition, by trigger node.",
			},
			[]string{"trigger"},
		),
		tickSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pulse_tick_signals",
				Help:    "Signals processed per tick.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
	}
	c.registry.MustRegister(c.pulses, c.ticks, c.aborted, c.tickSize)
	return c
}

// ObserveTick implements engine.Recorder.
func (c *Collector) ObserveTick(trigger ir.NodeID, res engine.TickResult) {
	c.pulses.WithLabelValues(ir.High.String()).Add(float64(res.High))
	c.pulses.WithLabelValues(ir.Low.String()).Add(float64(res.Low))
	c.ticks.WithLabelValues(string(trigger)).Inc()
	if res.Aborted {
		c.aborted.WithLabelValues(string(trigger)).Inc()
	}
	c.tickSize.Observe(float64(res.Total()))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current values in the node exporter textfile
// format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
