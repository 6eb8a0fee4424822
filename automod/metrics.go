package automod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "fedimod_event_duration_sec",
	Help: "Total duration of event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedimod_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedimod_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var signatureMatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedimod_signature_matches",
	Help: "Number of posts matched, by signature",
}, []string{"signature"})

var signaturePanicCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedimod_signature_panics",
	Help: "Number of signature evaluations which panicked",
}, []string{"signature"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedimod_actions",
	Help: "Number of moderation actions attempted, by action and result",
}, []string{"action", "result"})

var actionSkipCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedimod_actions_skipped",
	Help: "Number of moderation actions skipped by a guard (quota, dupe)",
}, []string{"action", "reason"})

var breakerState = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "fedimod_moderation_breaker_state",
	Help: "State of the moderation API circuit breaker (0=closed, 1=half-open, 2=open)",
})
