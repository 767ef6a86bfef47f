package domain

import "time"

// NotificationKind categorises user-facing messages.
type NotificationKind string

const (
	NotifyUploadAccepted     NotificationKind = "upload_accepted"
	NotifyUploadRejected     NotificationKind = "upload_rejected"
	NotifyDocumentRemoved    NotificationKind = "document_removed"
	NotifyProgressSaved      NotificationKind = "progress_saved"
	NotifyFormCleared        NotificationKind = "form_cleared"
	NotifySubmissionPending  NotificationKind = "submission_pending"
	NotifySubmissionComplete NotificationKind = "submission_complete"
	NotifySubmissionFailed   NotificationKind = "submission_failed"
	NotifyApplicationExport  NotificationKind = "application_exported"
)

// Severity mirrors toast variants.
type Severity string

const (
	SeverityInfo        Severity = "info"
	SeverityDestructive Severity = "destructive"
)

// Notification is a transient, fire-and-forget message for the user.
type Notification struct {
	SessionID   string           `json:"session_id"`
	Kind        NotificationKind `json:"kind"`
	Severity    Severity         `json:"severity"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
