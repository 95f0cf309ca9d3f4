package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated registry served at /metrics.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	InstancesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "instances_generated_total", Help: "Instances generated by difficulty and feasibility policy."},
		[]string{"difficulty", "policy"},
	)
	GenerationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "instance_generation_seconds", Help: "Time to generate one instance.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1}},
		[]string{"policy"},
	)
	// FleetSlack is available trucks minus the minimum required fleet.
	FleetSlack = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "instance_fleet_slack", Help: "Available minus minimum required trucks.", Buckets: []float64{0, 1, 2, 3, 5, 8, 13}},
		[]string{"difficulty"},
	)
	GenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "instance_generation_failures_total", Help: "Rejected or failed generations by reason."},
		[]string{"reason"},
	)

	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms, retries included.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector, plus Go and process
// collectors, on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(
			HTTPRequests, HTTPDuration,
			InstancesGenerated, GenerationSeconds, FleetSlack, GenerationFailures,
			WebhookDeliveries, WebhookLatency,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
