// Package metrics defines the Prometheus metric collectors used by the
// document index server and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheEntries     prometheus.Gauge
	DocsIndexedTotal prometheus.Counter
	DocsDeletedTotal prometheus.Counter
	WorkerSpawns     prometheus.Counter
	SearchWorkers    prometheus.Histogram
}

// New creates all collectors and registers them on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all collectors and registers them on reg. Tests pass
// their own registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docindex_requests_total",
				Help: "Total requests served by opcode and outcome (ok, error, dropped).",
			},
			[]string{"opcode", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docindex_request_duration_seconds",
				Help:    "Request handling latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"opcode"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docindex_cache_hits_total",
				Help: "Total search responses answered from the LRU cache.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docindex_cache_misses_total",
				Help: "Total search requests that missed the LRU cache.",
			},
		),
		CacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docindex_cache_entries",
				Help: "Current number of cached search responses.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docindex_docs_indexed_total",
				Help: "Total documents appended to the record store.",
			},
		),
		DocsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docindex_docs_deleted_total",
				Help: "Total records tombstoned.",
			},
		),
		WorkerSpawns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docindex_worker_spawns_total",
				Help: "Total request workers spawned for non-blocking commands.",
			},
		),
		SearchWorkers: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docindex_search_workers",
				Help:    "Effective scan worker count per search request.",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEntries,
		m.DocsIndexedTotal,
		m.DocsDeletedTotal,
		m.WorkerSpawns,
		m.SearchWorkers,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
