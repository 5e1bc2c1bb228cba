// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route pattern, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// LoadsEvaluated counts loads run through the flag engine
	LoadsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dispatch_loads_evaluated_total", Help: "Loads evaluated by the flag engine."},
	)
	// FlagsRaised counts raised flags by name
	FlagsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_flags_raised_total", Help: "Flags raised by flag name."},
		[]string{"flag"},
	)
	// RowsSkipped counts rows dropped by aggregation or import
	RowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_rows_skipped_total", Help: "Rows skipped for missing or unparseable data."},
		[]string{"stage"},
	)
	// ClustersBuilt records cluster counts per aggregation
	ClustersBuilt = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "dispatch_clusters_built", Help: "Clusters produced per aggregation.", Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500}},
		[]string{"kind"},
	)
	// LoadsImported counts imported loads by source format
	LoadsImported = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_loads_imported_total", Help: "Loads imported by source format."},
		[]string{"format"},
	)
	// WebhookDeliveries counts outbound webhook attempts by result
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_webhook_deliveries_total", Help: "Webhook delivery attempts by result."},
		[]string{"result"},
	)
	// WSClients is the number of connected refresh websocket clients
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "dispatch_ws_clients", Help: "Connected refresh websocket clients."},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(LoadsEvaluated)
		Registry.MustRegister(FlagsRaised)
		Registry.MustRegister(RowsSkipped)
		Registry.MustRegister(ClustersBuilt)
		Registry.MustRegister(LoadsImported)
		Registry.MustRegister(WSClients)
		Registry.MustRegister(WebhookDeliveries)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
