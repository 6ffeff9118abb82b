package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are package-level and registered on the default registry;
// cmd/api exposes them via promhttp on /metrics.

var (
	callsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Name:      "calls_placed_total",
		Help:      "Calls accepted for dispatch, by origin (direct, batch, campaign).",
	}, []string{"origin"})

	callsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Name:      "calls_settled_total",
		Help:      "Call lifecycle events applied, by resulting status.",
	}, []string{"status"})

	campaignTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Name:      "campaign_transitions_total",
		Help:      "Campaign status transitions, by action.",
	}, []string{"action"})

	dispatchRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Name:      "dispatch_rejected_total",
		Help:      "Call placements rejected before reaching the provider, by reason.",
	}, []string{"reason"})

	runnerTickSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voiceagent",
		Name:      "campaign_runner_tick_seconds",
		Help:      "Duration of one campaign runner poll tick.",
		Buckets:   prometheus.DefBuckets,
	})
)

func CallPlaced(origin string)         { callsPlaced.WithLabelValues(origin).Inc() }
func CallSettled(status string)        { callsSettled.WithLabelValues(status).Inc() }
func CampaignTransition(action string) { campaignTransitions.WithLabelValues(action).Inc() }
func DispatchRejected(reason string)   { dispatchRejected.WithLabelValues(reason).Inc() }
func ObserveRunnerTick(seconds float64) { runnerTickSeconds.Observe(seconds) }
