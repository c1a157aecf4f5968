package metrics

import (
	"time"

	"orchestration-agent/pkg/orchestration/action"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orchestrationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestration_requests_total",
			Help: "Orchestration requests by outcome (success, invalid, no_documents, unavailable)",
		},
		[]string{"outcome"},
	)

	orchestrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orchestration_duration_seconds",
			Help:    "Wall time of completed orchestrations",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	actionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestration_actions_total",
			Help: "Executed actions by type and result",
		},
		[]string{"type", "result"},
	)

	credentialRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestration_credential_rotations_total",
			Help: "Number of times the text generation credential was rotated",
		},
	)

	planFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestration_plan_fallbacks_total",
			Help: "Plans replaced by the synthetic extract action",
		},
	)

	synthesisFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orchestration_synthesis_fallbacks_total",
			Help: "Final answers replaced by the templated summary",
		},
	)
)

const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeNoDocuments = "no_documents"
	OutcomeUnavailable = "unavailable"
)

func RecordRequest(outcome string) {
	orchestrationRequests.WithLabelValues(outcome).Inc()
}

func ObserveDuration(d time.Duration) {
	orchestrationDuration.Observe(d.Seconds())
}

// RecordAction labels by the closed action type, so every unrecognised
// model-supplied type lands on "unknown".
func RecordAction(actionType action.Type, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	actionOutcomes.WithLabelValues(actionType.String(), result).Inc()
}

// RecordRotation matches rotation.RotationObserver.
func RecordRotation(from, to int) {
	credentialRotations.Inc()
}

func RecordPlanFallback() {
	planFallbacks.Inc()
}

func RecordSynthesisFallback(error) {
	synthesisFallbacks.Inc()
}
