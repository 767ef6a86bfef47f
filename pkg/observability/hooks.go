package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/govform/pkg/domain"
)

// Chain combines several hook sets. Every non-nil callback runs in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	for _, h := range sets {
		if h.OnTransition != nil {
			prev, fn := out.OnTransition, h.OnTransition
			out.OnTransition = func(ctx context.Context, e *domain.TransitionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
		if h.OnValidation != nil {
			prev, fn := out.OnValidation, h.OnValidation
			out.OnValidation = func(ctx context.Context, e *domain.ValidationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
		if h.OnDocument != nil {
			prev, fn := out.OnDocument, h.OnDocument
			out.OnDocument = func(ctx context.Context, e *domain.DocumentEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
		if h.OnDraft != nil {
			prev, fn := out.OnDraft, h.OnDraft
			out.OnDraft = func(ctx context.Context, e *domain.DraftEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
		if h.OnSubmission != nil {
			prev, fn := out.OnSubmission, h.OnSubmission
			out.OnSubmission = func(ctx context.Context, e *domain.SubmissionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				fn(ctx, e)
			}
		}
	}
	return out
}

// LogHooks writes every lifecycle event to logger at debug level, and
// failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, string(e.Type), "session_id", e.SessionID, "from", e.From.String(), "to", e.To.String())
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.DebugContext(ctx, "validation", "session_id", e.SessionID, "step", e.Step.String(), "failed_fields", e.Errors.Fields())
		},
		OnDocument: func(ctx context.Context, e *domain.DocumentEvent) {
			logger.DebugContext(ctx, "document", "session_id", e.SessionID, "outcome", e.Outcome, "media_type", e.MediaType, "size", e.Size)
		},
		OnDraft: func(ctx context.Context, e *domain.DraftEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "draft operation failed", "session_id", e.SessionID, "operation", e.Operation, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "draft", "session_id", e.SessionID, "operation", e.Operation)
		},
		OnSubmission: func(ctx context.Context, e *domain.SubmissionEvent) {
			logger.InfoContext(ctx, "submission", "session_id", e.SessionID, "outcome", e.Outcome, "confirmation", e.ConfirmationNumber, "duration", e.Duration)
		},
	}
}
