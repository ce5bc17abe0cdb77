// Package metrics holds the bot's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MentionsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbot_mentions_handled_total",
			Help: "Mentions handled, by channel, destination and outcome",
		},
		[]string{"channel", "destination", "outcome"},
	)

	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbot_route_decisions_total",
			Help: "Router decisions by destination",
		},
		[]string{"destination"},
	)

	ModelListRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbot_model_list_requests_total",
			Help: "Model list lookups by source (cache, fetch, fetch_error)",
		},
		[]string{"source"},
	)

	ModelValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbot_model_validations_total",
			Help: "Model validations by result",
		},
		[]string{"result"},
	)

	CachedModels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slackbot_cached_models",
			Help: "Number of model ids in the current cache snapshot",
		},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackbot_upstream_latency_seconds",
			Help:    "Latency of calls to the completion, model list and search APIs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	StartupHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slackbot_startup_model_valid",
			Help: "1 if the default model validated at startup, 0 otherwise",
		},
	)
)
