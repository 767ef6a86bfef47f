package ports

import "context"

// SlotStore persists opaque string values under string keys.
// Drafts use two slots per session, so a store only needs key/value semantics.
type SlotStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrSlotNotFound if the key holds no value.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key currently stored.
	List(ctx context.Context) ([]string, error)
}
