package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxf2gml_conversions_total",
			Help: "Conversions by outcome and caller.",
		},
		[]string{"outcome", "source"},
	)

	conversionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dxf2gml_conversion_duration_seconds",
			Help:    "Time spent parsing and encoding one drawing.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"source"},
	)

	parcelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxf2gml_parcels_total",
			Help: "Parcels written to documents by reference scheme.",
		},
		[]string{"scheme"},
	)

	warningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxf2gml_warnings_total",
			Help: "Report warnings and diagnostics by kind.",
		},
		[]string{"kind"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by outcome.",
		},
		[]string{"outcome", "tier"},
	)

	cacheOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Latency of shared cache operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxf2gml_events_published_total",
			Help: "Conversion events sent to the broker.",
		},
		[]string{"result"},
	)

	eventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dxf2gml_events_consumed_total",
			Help: "Conversion events read by watchers, by result.",
		},
		[]string{"result"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		conversionsTotal,
		conversionDurationSeconds,
		parcelsTotal,
		warningsTotal,
		cacheResults,
		cacheOpDurationSeconds,
		eventsPublished,
		eventsConsumed,
	}
}

// Init registers the collectors on reg. Registering on the same registry
// twice is a no-op.
func Init(reg prometheus.Registerer) {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveConversion(source, outcome string, durationSeconds float64) {
	conversionsTotal.WithLabelValues(outcome, source).Inc()
	conversionDurationSeconds.WithLabelValues(source).Observe(durationSeconds)
}

func AddParcels(scheme string, n int) {
	if n > 0 {
		parcelsTotal.WithLabelValues(scheme).Add(float64(n))
	}
}

func IncWarning(kind string) {
	warningsTotal.WithLabelValues(kind).Inc()
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues("hit", tier).Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues("miss", tier).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpDurationSeconds.WithLabelValues(op, result).Observe(durationSeconds)
}

func IncEventPublished(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(result).Inc()
}

// IncEventConsumed counts one consumed message. result is ok, duplicate,
// decode, invalid or handler.
func IncEventConsumed(result string) {
	eventsConsumed.WithLabelValues(result).Inc()
}
