/*
Package observability provides tools for monitoring the form engine.

It includes Prometheus metrics driven by domain.LifecycleHooks, structured
log hooks for auditing transitions, and Chain for combining several hook
sets into one.
*/
package observability
