package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepAdvance EventType = "step_advance"
	EventStepRetreat EventType = "step_retreat"
	EventValidation  EventType = "validation"
	EventDocument    EventType = "document"
	EventDraft       EventType = "draft"
	EventSubmission  EventType = "submission"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TransitionEvent reports a step change.
type TransitionEvent struct {
	EventBase
	From Step `json:"from"`
	To   Step `json:"to"`
}

// ValidationEvent reports one validation pass.
type ValidationEvent struct {
	EventBase
	Step   Step        `json:"step"`
	Errors FieldErrors `json:"errors,omitempty"`
}

// DocumentEvent reports an upload decision or a removal.
type DocumentEvent struct {
	EventBase
	DocumentID string `json:"document_id,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Outcome    string `json:"outcome"` // accepted, rejected, removed
}

// DraftEvent reports a draft store operation.
type DraftEvent struct {
	EventBase
	Operation string `json:"operation"` // save, load, clear
	Err       error  `json:"-"`
}

// SubmissionEvent reports the outcome of a submission.
type SubmissionEvent struct {
	EventBase
	ConfirmationNumber string        `json:"confirmation_number,omitempty"`
	Outcome            string        `json:"outcome"` // requested, cancelled, pending, submitted, failed
	Duration           time.Duration `json:"duration,omitempty"`
}

// LifecycleHooks defines callbacks for wizard observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnValidation func(context.Context, *ValidationEvent)
	OnDocument   func(context.Context, *DocumentEvent)
	OnDraft      func(context.Context, *DraftEvent)
	OnSubmission func(context.Context, *SubmissionEvent)
}
