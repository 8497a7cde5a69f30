package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Screen cycle outcomes used as the "outcome" label of ScreenCyclesTotal.
const (
	CycleSuccess    = "success"
	CycleError      = "error"
	CycleSuperseded = "superseded"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (server down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Weather provider call rate per endpoint (search, location). Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Provider latency per endpoint. A cycle costs two of these back to back.
	WeatherAPIDuration *prometheus.HistogramVec

	// Completed resolve+fetch sequences. Watch for: not_found spikes (users typing bad cities).
	WeatherLookupsTotal *prometheus.CounterVec

	// Screen fetch cycles by outcome. Superseded = response discarded because a newer search was issued.
	ScreenCyclesTotal *prometheus.CounterVec

	// 1 while the screen shows the busy indicator.
	ScreenLoading prometheus.Gauge

	// Search submissions by source (terminal, http, mount).
	SearchSubmissionsTotal *prometheus.CounterVec

	// Rate limit denials on POST /search.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of weather provider calls",
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Weather provider latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	WeatherLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherLookupsTotal",
			Help: "Resolve+fetch sequences by result category",
		},
		[]string{"result"},
	)
	ScreenCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenCyclesTotal",
			Help: "Screen fetch cycles by outcome (success, error, superseded)",
		},
		[]string{"outcome"},
	)
	ScreenLoading = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "screenLoading",
			Help: "1 while a fetch cycle is pending on the screen",
		},
	)
	SearchSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchSubmissionsTotal",
			Help: "Non-empty search submissions by source",
		},
		[]string{"source"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of search submissions denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherLookupsTotal,
		ScreenCyclesTotal, ScreenLoading, SearchSubmissionsTotal,
		RateLimitDeniedTotal,
	)
}

// RecordScreenCycle counts a finished cycle and updates the loading gauge.
// loading is the screen's loading flag after the cycle was reconciled.
func RecordScreenCycle(outcome string, loading bool) {
	ScreenCyclesTotal.WithLabelValues(outcome).Inc()
	SetScreenLoading(loading)
}

// SetScreenLoading mirrors the screen's loading flag into the gauge.
func SetScreenLoading(loading bool) {
	if loading {
		ScreenLoading.Set(1)
		return
	}
	ScreenLoading.Set(0)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
