package observability

import (
	"context"

	"github.com/aretw0/govform/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the form engine.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	Validations  *prometheus.CounterVec
	FieldErrors  *prometheus.CounterVec
	Documents    *prometheus.CounterVec
	UploadBytes  prometheus.Histogram
	DraftOps     *prometheus.CounterVec
	Submissions  *prometheus.CounterVec
	SubmitTiming prometheus.Histogram
	ActiveForms  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govform_step_transitions_total",
			Help: "Step transitions by direction and target step",
		}, []string{"direction", "step"}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govform_validations_total",
			Help: "Validation runs by step and result",
		}, []string{"step", "result"}),
		FieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govform_field_errors_total",
			Help: "Failed fields across validation runs",
		}, []string{"field"}),
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govform_documents_total",
			Help: "Document uploads and removals by outcome",
		}, []string{"outcome"}),
		UploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "govform_upload_bytes",
			Help:    "Size of accepted uploads",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
		DraftOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govform_draft_operations_total",
			Help: "Draft store operations by result",
		}, []string{"operation", "result"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govform_submissions_total",
			Help: "Submission flow outcomes",
		}, []string{"outcome"}),
		SubmitTiming: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "govform_submission_duration_seconds",
			Help:    "Time from confirmation to outcome",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveForms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "govform_active_sessions",
			Help: "Sessions currently held in memory",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Transitions, m.Validations, m.FieldErrors, m.Documents, m.UploadBytes,
			m.DraftOps, m.Submissions, m.SubmitTiming, m.ActiveForms,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			direction := "advance"
			if e.Type == domain.EventStepRetreat {
				direction = "retreat"
			}
			m.Transitions.WithLabelValues(direction, e.To.String()).Inc()
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			result := "pass"
			if !e.Errors.Empty() {
				result = "fail"
			}
			m.Validations.WithLabelValues(e.Step.String(), result).Inc()
			for _, f := range e.Errors.Fields() {
				m.FieldErrors.WithLabelValues(f).Inc()
			}
		},
		OnDocument: func(ctx context.Context, e *domain.DocumentEvent) {
			m.Documents.WithLabelValues(e.Outcome).Inc()
			if e.Outcome == "accepted" {
				m.UploadBytes.Observe(float64(e.Size))
			}
		},
		OnDraft: func(ctx context.Context, e *domain.DraftEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.DraftOps.WithLabelValues(e.Operation, result).Inc()
		},
		OnSubmission: func(ctx context.Context, e *domain.SubmissionEvent) {
			m.Submissions.WithLabelValues(e.Outcome).Inc()
			if e.Duration > 0 {
				m.SubmitTiming.Observe(e.Duration.Seconds())
			}
		},
	}
}
