package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// Metrics groups the agent's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// JobRuns counts scheduler job runs by job and outcome (ok, error, panic).
	JobRuns *prometheus.CounterVec
	// JobDuration observes how long each job took.
	JobDuration *prometheus.HistogramVec
	// PostTransitions counts status changes of posts.
	PostTransitions *prometheus.CounterVec
	// Completions counts LLM calls per provider and outcome.
	Completions *prometheus.CounterVec
	// HTTPRequests counts ops server requests by route and status.
	HTTPRequests *prometheus.CounterVec
}

var _ ports.Recorder = (*Metrics)(nil)

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smm_job_runs_total",
				Help: "Scheduler job runs by outcome",
			},
			[]string{"job", "outcome"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smm_job_duration_seconds",
				Help:    "Scheduler job duration",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"job"},
		),
		PostTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smm_post_transitions_total",
				Help: "Post status transitions",
			},
			[]string{"from", "to"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smm_llm_completions_total",
				Help: "LLM completions by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smm_http_requests_total",
				Help: "Ops HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}

	m.Registry.MustRegister(
		m.JobRuns,
		m.JobDuration,
		m.PostTransitions,
		m.Completions,
		m.HTTPRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// JobFinished records one job run.
func (m *Metrics) JobFinished(job, outcome string, took time.Duration) {
	m.JobRuns.WithLabelValues(job, outcome).Inc()
	m.JobDuration.WithLabelValues(job).Observe(took.Seconds())
}

// PostTransition records one status change.
func (m *Metrics) PostTransition(from, to domain.Status) {
	m.PostTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// Completion records one LLM call.
func (m *Metrics) Completion(provider, outcome string) {
	m.Completions.WithLabelValues(provider, outcome).Inc()
}

// Nop discards every measurement.
type Nop struct{}

var _ ports.Recorder = Nop{}

func (Nop) JobFinished(string, string, time.Duration)   {}
func (Nop) PostTransition(domain.Status, domain.Status) {}
func (Nop) Completion(string, string)                   {}
