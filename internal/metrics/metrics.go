// Package metrics exposes Prometheus counters for the build pipeline.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trigger outcomes.
const (
	OutcomeStarted     = "started"
	OutcomeBusy        = "busy"
	OutcomeSpawnFailed = "spawn_failed"
	OutcomeError       = "error"
)

// Recorder is safe to use as a nil pointer, in which case it records nothing.
type Recorder struct {
	triggers       *prom.CounterVec
	reaped         prom.Counter
	outboxFired    prom.Counter
	contentChanges *prom.CounterVec
}

// NewRecorder constructs and registers the pipeline metrics on reg.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		triggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "build_triggers_total",
			Help:      "Build trigger attempts by outcome",
		}, []string{"source", "outcome"}),
		reaped: prom.NewCounter(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "builds_reaped_total",
			Help:      "Abandoned builds finalized as failed by the reaper",
		}),
		outboxFired: prom.NewCounter(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "build_requests_fired_total",
			Help:      "Outbox build requests handed to the launcher",
		}),
		contentChanges: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuild",
			Name:      "content_transactions_total",
			Help:      "Committed content transactions by whether they requested a build",
		}, []string{"build_requested"}),
	}
	reg.MustRegister(r.triggers, r.reaped, r.outboxFired, r.contentChanges)
	return r
}

func (r *Recorder) ObserveTrigger(source, outcome string) {
	if r == nil {
		return
	}
	r.triggers.WithLabelValues(source, outcome).Inc()
}

func (r *Recorder) ObserveReaped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.reaped.Add(float64(n))
}

func (r *Recorder) ObserveOutboxFired(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.outboxFired.Add(float64(n))
}

func (r *Recorder) ObserveContentCommit(buildRequested bool) {
	if r == nil {
		return
	}
	label := "false"
	if buildRequested {
		label = "true"
	}
	r.contentChanges.WithLabelValues(label).Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
