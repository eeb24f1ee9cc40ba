// Package metrics exposes Prometheus collectors for the offer flow.
//
// Labels are kept to small closed sets (outcome, verdict, kind) so series
// cardinality stays bounded. All collectors register with the default
// registry and are served by the liveness server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// starts counts /start outcomes: welcome, cooldown, active.
	starts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerbot_start_total",
			Help: "Offer flow starts by outcome.",
		},
		[]string{"outcome"},
	)

	// verifications counts code submissions by verdict.
	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerbot_code_verifications_total",
			Help: "Verification code submissions by verdict.",
		},
		[]string{"verdict"},
	)

	grants = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerbot_grants_total",
			Help: "Entitlements granted.",
		},
	)

	// notifyFailures counts operator notifications that could not be delivered.
	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerbot_notify_failures_total",
			Help: "Operator notifications that failed delivery.",
		},
	)

	// outbound counts messages sent to users; kb marks replies carrying a keyboard.
	outbound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerbot_messages_sent_total",
			Help: "Messages sent to users.",
		},
		[]string{"kb"},
	)
)

func init() {
	prometheus.MustRegister(starts, verifications, grants, notifyFailures, outbound)
}

// ObserveStart records one /start outcome.
func ObserveStart(outcome string) {
	starts.WithLabelValues(outcome).Inc()
}

// ObserveVerification records one verdict.
func ObserveVerification(verdict string) {
	verifications.WithLabelValues(verdict).Inc()
}

// ObserveGrant records a stored entitlement.
func ObserveGrant() {
	grants.Inc()
}

// ObserveNotifyFailure records a dropped operator notification.
func ObserveNotifyFailure() {
	notifyFailures.Inc()
}

// ObserveMessage records one outbound message.
func ObserveMessage(withKeyboard bool) {
	label := "false"
	if withKeyboard {
		label = "true"
	}
	outbound.WithLabelValues(label).Inc()
}
