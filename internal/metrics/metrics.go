package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the service's Prometheus collectors.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SearchDuration prometheus.Histogram
	SearchResults  prometheus.Histogram

	FacetCacheHits         prometheus.Counter
	FacetCacheMisses       prometheus.Counter
	FacetCacheBreakerState prometheus.Gauge
}

// NewRegistry registers all collectors on reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farequote_http_requests_total",
				Help: "Total HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farequote_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "farequote_search_duration_seconds",
			Help:    "Time to run the page and facet queries of one search",
			Buckets: prometheus.DefBuckets,
		}),
		SearchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "farequote_search_total_count",
			Help:    "Number of fares matching a search",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		}),
		FacetCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "farequote_facet_cache_hits_total",
			Help: "Facet lookups served from the cache",
		}),
		FacetCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "farequote_facet_cache_misses_total",
			Help: "Facet lookups that went to the store",
		}),
		FacetCacheBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "farequote_facet_cache_breaker_state",
			Help: "Facet cache circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),
	}
}
