package domain

import (
	"errors"
	"sort"
)

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrSlotNotFound is returned by slot stores when a key holds no value.
var ErrSlotNotFound = errors.New("slot not found")

var (
	ErrUnknownField          = errors.New("unknown field")
	ErrFieldType             = errors.New("invalid field value")
	ErrStepOutOfRange        = errors.New("step out of range")
	ErrSubmitted             = errors.New("application already submitted")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrNoPendingConfirmation = errors.New("no submission awaiting confirmation")
	ErrSubmissionInFlight    = errors.New("submission already in progress")
	ErrAwaitingConfirmation  = errors.New("submission is awaiting confirmation")
	ErrNotSubmitted          = errors.New("application not submitted yet")
)

// FieldErrors maps a field key to its message. A missing key means valid.
type FieldErrors map[string]string

// Empty reports whether no field failed.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Fields returns the failing keys in a stable order.
func (e FieldErrors) Fields() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone copies the mapping. Nil stays nil-safe: the result is never nil.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
