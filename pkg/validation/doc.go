// Package validation holds the per-step field validators of the application
// form.
//
// Validators are pure: they read a FormData value, never mutate it, and
// return a domain.FieldErrors map keyed by field name. An empty map means the
// step is complete. The only external input is the current date, which is
// taken from an injectable clock so age checks are deterministic in tests.
package validation
