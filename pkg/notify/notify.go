// Package notify contains ports.Notifier implementations.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/ports"
)

// Log writes every notification to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a notifier logging at info, or warn for destructive ones.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n domain.Notification) {
	level := slog.LevelInfo
	if n.Severity == domain.SeverityDestructive {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, n.Title,
		"session_id", n.SessionID,
		"kind", string(n.Kind),
		"description", n.Description,
	)
}

// Multi fans a notification out to several notifiers.
type Multi []ports.Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Discard drops everything.
var Discard ports.Notifier = ports.NotifierFunc(func(context.Context, domain.Notification) {})

// Recorder keeps every notification it receives. Useful in tests and for
// hosts that drain messages after each request.
type Recorder struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (r *Recorder) Notify(ctx context.Context, n domain.Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns and forgets the recorded notifications.
func (r *Recorder) Drain() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Kinds lists the recorded kinds in order.
func (r *Recorder) Kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationKind, len(r.items))
	for i, n := range r.items {
		out[i] = n.Kind
	}
	return out
}
