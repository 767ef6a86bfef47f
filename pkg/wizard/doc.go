/*
Package wizard implements the multi-step application form state machine.

A Machine owns one applicant's session: the field values, the current step,
the validation errors of the last run, the document registry and the
submission flow. Progress is gated: Advance only moves forward when the
current step validates. Drafts are saved on request and, by default, after
every successful advance; they are cleared on reset and after a successful
submission.

# Concurrency

Every exported method is safe for concurrent use. Lifecycle hooks and
notifications are delivered after the machine lock is released, so
observers may call back into the machine (for example to take a Snapshot).
*/
package wizard
