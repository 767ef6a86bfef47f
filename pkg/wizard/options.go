package wizard

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/govform/pkg/documents"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/draft"
	"github.com/aretw0/govform/pkg/ports"
	"github.com/aretw0/govform/pkg/submission"
	"github.com/aretw0/govform/pkg/validation"
)

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = h
	}
}

// WithNotifier sets where user-facing messages go.
func WithNotifier(n ports.Notifier) Option {
	return func(m *Machine) {
		m.notifier = n
	}
}

// WithDrafts enables persistence. Without it the machine is memory-only.
func WithDrafts(d *draft.Store) Option {
	return func(m *Machine) {
		m.drafts = d
	}
}

// WithAutosave toggles saving after each successful advance (default on).
func WithAutosave(enabled bool) Option {
	return func(m *Machine) {
		m.autosave = enabled
	}
}

// WithClock overrides time.Now for validation, ids and receipts.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *validation.Validator) Option {
	return func(m *Machine) {
		m.validator = v
	}
}

// WithRegistryOptions configures the document registry.
func WithRegistryOptions(opts ...documents.Option) Option {
	return func(m *Machine) {
		m.registryOpts = append(m.registryOpts, opts...)
	}
}

// WithSubmissionOptions configures the submission flow (delay, gateway).
func WithSubmissionOptions(opts ...submission.Option) Option {
	return func(m *Machine) {
		m.flowOpts = append(m.flowOpts, opts...)
	}
}

// WithTracerProvider sets the OpenTelemetry provider (default: global).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Machine) {
		m.tracer = tp.Tracer(tracerName)
	}
}
