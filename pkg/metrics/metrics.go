// Package metrics exposes Prometheus instrumentation for community
// detection runs. A nil *Registry is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics recorded by the algorithms.
type Registry struct {
	// Louvain metrics
	LouvainRunsTotal    *prometheus.CounterVec
	LouvainRunDuration  prometheus.Histogram
	LouvainLevels       prometheus.Histogram
	LouvainMovesTotal   prometheus.Counter
	LouvainModularity   prometheus.Gauge
	LouvainPassesCapped prometheus.Counter

	// PageRank metrics
	PageRankQueriesTotal   *prometheus.CounterVec
	PageRankQueryDuration  prometheus.Histogram
	PageRankPushes         prometheus.Histogram
	PageRankPushCapReached prometheus.Counter
	SweepConductance       prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}
	r.initLouvainMetrics()
	r.initPageRankMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) initLouvainMetrics() {
	r.LouvainRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_louvain_runs_total",
			Help: "Total number of Louvain runs",
		},
		[]string{"status"},
	)

	r.LouvainRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "community_louvain_run_duration_seconds",
			Help:    "Louvain run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
		},
	)

	r.LouvainLevels = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "community_louvain_levels",
			Help:    "Number of hierarchy levels produced per run",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	r.LouvainMovesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "community_louvain_moves_total",
			Help: "Total number of node moves made during local moving",
		},
	)

	r.LouvainModularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "community_louvain_last_modularity",
			Help: "Modularity of the final level of the most recent run",
		},
	)

	r.LouvainPassesCapped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "community_louvain_pass_cap_reached_total",
			Help: "Number of levels whose local moving stopped at the iteration cap",
		},
	)
}

func (r *Registry) initPageRankMetrics() {
	r.PageRankQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_pagerank_queries_total",
			Help: "Total number of personalized PageRank queries",
		},
		[]string{"kind"},
	)

	r.PageRankQueryDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "community_pagerank_query_duration_seconds",
			Help:    "Personalized PageRank query duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		},
	)

	r.PageRankPushes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "community_pagerank_pushes",
			Help:    "Number of push operations per PageRank run",
			Buckets: []float64{10, 100, 1000, 10000, 100000, 1000000},
		},
	)

	r.PageRankPushCapReached = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "community_pagerank_push_cap_reached_total",
			Help: "Number of PageRank runs stopped by the push cap before converging",
		},
	)

	r.SweepConductance = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "community_sweep_conductance",
			Help:    "Conductance of communities returned by sweep cuts",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.4, 0.6, 0.8, 1},
		},
	)
}

// RecordLouvainRun records the outcome of one Louvain run.
func (r *Registry) RecordLouvainRun(status string, duration time.Duration, levels, moves int, modularity float64) {
	if r == nil {
		return
	}
	r.LouvainRunsTotal.WithLabelValues(status).Inc()
	r.LouvainRunDuration.Observe(duration.Seconds())
	if status != "ok" {
		return
	}
	r.LouvainLevels.Observe(float64(levels))
	r.LouvainMovesTotal.Add(float64(moves))
	r.LouvainModularity.Set(modularity)
}

// RecordPassCapReached counts a level whose local moving hit the cap.
func (r *Registry) RecordPassCapReached() {
	if r == nil {
		return
	}
	r.LouvainPassesCapped.Inc()
}

// RecordPageRankQuery records one PageRank query of the given kind.
func (r *Registry) RecordPageRankQuery(kind string, duration time.Duration) {
	if r == nil {
		return
	}
	r.PageRankQueriesTotal.WithLabelValues(kind).Inc()
	r.PageRankQueryDuration.Observe(duration.Seconds())
}

// RecordPushes records the push count of one PageRank run.
func (r *Registry) RecordPushes(pushes int, capped bool) {
	if r == nil {
		return
	}
	r.PageRankPushes.Observe(float64(pushes))
	if capped {
		r.PageRankPushCapReached.Inc()
	}
}

// RecordConductance records the conductance of an extracted community.
func (r *Registry) RecordConductance(phi float64) {
	if r == nil {
		return
	}
	r.SweepConductance.Observe(phi)
}
