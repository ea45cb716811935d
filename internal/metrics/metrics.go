// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "codecraft"

// Label names.
const (
	LabelMethod   = "method"
	LabelRoute    = "route"
	LabelStatus   = "status"
	LabelEvent    = "event"
	LabelOutcome  = "outcome"
	LabelLanguage = "language"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being served",
		},
	)
)

// Business metrics
var (
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Identity webhook deliveries by event type and outcome",
		},
		[]string{LabelEvent, LabelOutcome},
	)

	SnippetsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snippets_created_total",
			Help:      "Snippets created, by language",
		},
		[]string{LabelLanguage},
	)

	StarsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stars_toggled_total",
			Help:      "Star toggles, by resulting state (starred or unstarred)",
		},
		[]string{LabelOutcome},
	)

	ExecutionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_recorded_total",
			Help:      "Execution records written, by language and outcome",
		},
		[]string{LabelLanguage, LabelOutcome},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Time spent in the execution backend",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{LabelLanguage},
	)

	SandboxWarmContainers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sandbox_warm_containers",
			Help:      "Idle sandbox containers ready per language",
		},
		[]string{LabelLanguage},
	)

	TierGateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_gate_rejections_total",
			Help:      "Executions refused for lack of a subscription",
		},
		[]string{LabelLanguage},
	)
)

// RecordWebhookEvent matches the webhook.Relay outcome callback.
func RecordWebhookEvent(eventType, outcome string) {
	WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}
