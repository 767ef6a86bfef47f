package ports

import (
	"context"

	"github.com/aretw0/govform/pkg/domain"
)

// Notifier delivers transient user-facing messages (toasts).
// Implementations must not block the caller for long and never fail it.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n domain.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n domain.Notification) {
	f(ctx, n)
}
