// Package submission implements the confirm-then-submit gate of an
// application: idle, awaiting confirmation, pending, submitted.
//
// Confirming schedules the submission after a delay with time.AfterFunc. The
// callback re-checks an attempt number under the lock before touching the
// form, so a reset or disposal that happens first turns it into a no-op.
package submission
