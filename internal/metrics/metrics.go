package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus: HTTP, геокодирование, хранилище меток.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protomap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "protomap_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
			// добавление метки включает два запроса к геокодеру и паузы между ними
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	GeocodingResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protomap_geocoding_resolutions_total",
			Help: "Geocoding resolutions by outcome (success or failure kind)",
		},
		[]string{"outcome"},
	)

	GeocodingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protomap_geocoding_duration_seconds",
			Help:    "Duration of a full two-stage resolution in seconds",
			Buckets: []float64{0.5, 1, 1.5, 2, 3, 5, 10, 20, 30},
		},
	)

	GeocodingProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protomap_geocoding_provider_calls_total",
			Help: "Outbound geocoding provider calls by operation and result",
		},
		[]string{"operation", "result"}, // reverse|search, hit|miss|error|rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "protomap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	MarkerCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protomap_marker_cache_requests_total",
			Help: "Marker list cache lookups by result",
		},
		[]string{"result"}, // hit|miss|error
	)

	MarkerEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protomap_marker_events_published_total",
			Help: "Marker activity events handed to the publisher",
		},
		[]string{"action", "result"},
	)
)
