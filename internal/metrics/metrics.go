// Package metrics provides centralized Prometheus metrics registry for the analytics service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	ReportRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "report_requests_total",
		Help:      "Total number of report computations by mode and status",
	}, []string{"mode", "status"})
	LeaguesCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "leagues_cache_requests_total",
		Help:      "Leagues cache lookups by result",
	}, []string{"result"})
	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "events_published_total",
		Help:      "Total number of service events published by type",
	}, []string{"type"})
)

// Gauge metrics
var (
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edgeboard",
		Name:      "websocket_clients",
		Help:      "Number of connected event stream clients",
	})
)

// Histogram metrics
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edgeboard",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edgeboard",
		Name:      "report_duration_seconds",
		Help:      "Duration of report computations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(HTTPRequestsTotal)
		registry.MustRegister(ReportRequestsTotal)
		registry.MustRegister(LeaguesCacheRequestsTotal)
		registry.MustRegister(EventsPublishedTotal)

		// Register gauge metrics
		registry.MustRegister(WebsocketClients)

		// Register histogram metrics
		registry.MustRegister(HTTPRequestDuration)
		registry.MustRegister(ReportDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(PicksSelectedTotal)
		registry.MustRegister(BacktestUnits)

		// Register ingestion metrics
		registry.MustRegister(ImportRunsTotal)
		registry.MustRegister(ImportRowsTotal)
		registry.MustRegister(ImportDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route, method, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordReport records a report computation.
// status should be one of: "success", "error"
func RecordReport(mode, status string, durationSeconds float64) {
	ReportRequestsTotal.WithLabelValues(mode, status).Inc()
	ReportDuration.Observe(durationSeconds)
}

// RecordLeaguesCache records a leagues cache lookup.
func RecordLeaguesCache(hit bool) {
	if hit {
		LeaguesCacheRequestsTotal.WithLabelValues("hit").Inc()
		return
	}
	LeaguesCacheRequestsTotal.WithLabelValues("miss").Inc()
}

// RecordEventPublished records a published service event.
func RecordEventPublished(eventType string) {
	EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

// UpdateWebsocketClients updates the connected clients gauge.
func UpdateWebsocketClients(count int) {
	WebsocketClients.Set(float64(count))
}
