// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes pipeline activity as Prometheus collectors. A
// Collector implements pipeline.Observer and is safe for concurrent runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const namespace = "foodsafety"

// Collector records stage durations, degraded metrics, and completed runs.
type Collector struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	degradedMetrics *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
}

// New returns a Collector registered on its own registry together with the
// Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time of each pipeline stage",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 60},
			},
			[]string{"stage"},
		),
		degradedMetrics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_metrics_total",
				Help:      "Stage metrics computed from documented defaults",
			},
			[]string{"stage"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed analysis runs by risk level",
			},
			[]string{"risk_level"},
		),
	}
	c.registry.MustRegister(
		c.stageDuration,
		c.degradedMetrics,
		c.runsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// StageCompleted implements pipeline.Observer.
func (c *Collector) StageCompleted(stage types.StageName, elapsed time.Duration, result types.StageResult) {
	c.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if n := len(result.DegradedMetrics()); n > 0 {
		c.degradedMetrics.WithLabelValues(string(stage)).Add(float64(n))
	}
}

// RunCompleted implements pipeline.Observer.
func (c *Collector) RunCompleted(r *types.SafetyReport) {
	c.runsTotal.WithLabelValues(string(r.ExecutiveSummary.RiskLevel)).Inc()
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
