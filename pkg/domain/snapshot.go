package domain

import "time"

// SubmissionStatus is the phase of the submission flow.
type SubmissionStatus string

const (
	SubmissionIdle      SubmissionStatus = "idle"
	SubmissionAwaiting  SubmissionStatus = "awaiting_confirmation"
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
)

// Receipt is the terminal record of a successful submission.
type Receipt struct {
	ConfirmationNumber string    `json:"confirmationNumber"`
	SubmittedAt        time.Time `json:"submittedAt"`
}

// Snapshot is an immutable copy of one session.
type Snapshot struct {
	SessionID   string           `json:"session_id"`
	CurrentStep Step             `json:"current_step"`
	TotalSteps  int              `json:"total_steps"`
	Data        FormData         `json:"data"`
	Errors      FieldErrors      `json:"errors"`
	Submitted   bool             `json:"submitted"`
	Submission  SubmissionStatus `json:"submission"`
	Receipt     *Receipt         `json:"receipt,omitempty"`
}
