// Package metrics holds the Prometheus collectors of resephub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoadsTotal counts catalog loads by outcome: ready or offline.
	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resephub_catalog_loads_total",
			Help: "Catalog load cycles by outcome",
		},
		[]string{"outcome"},
	)

	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resephub_catalog_load_duration_seconds",
			Help:    "Duration of the paired category/recipe fetch",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resephub_catalog_entries",
			Help: "Entries currently held in the catalog",
		},
		[]string{"kind"}, // recipes, categories
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resephub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// OfflineCacheRequests counts worker decisions by strategy and result:
	// network, cache, miss.
	OfflineCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resephub_offline_cache_requests_total",
			Help: "Requests handled by the offline cache worker",
		},
		[]string{"strategy", "result"},
	)

	FavoriteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resephub_favorite_toggles_total",
			Help: "Favorite toggles by resulting state",
		},
		[]string{"state"}, // added, removed
	)

	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resephub_page_renders_total",
			Help: "Rendered pages by kind and format",
		},
		[]string{"kind", "format"},
	)
)
