package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/govform/pkg/adapters/memory"
)

// Locks are dropped once the last holder releases them, including the
// ones taken internally by Open and Delete.
func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 2000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("applicant-%d", i)
		if _, err := mgr.Open(ctx, sid); err != nil {
			t.Fatalf("open %s: %v", sid, err)
		}
		_ = mgr.WithLock(ctx, sid, func(context.Context) error { return nil })
		if err := mgr.Delete(ctx, sid); err != nil {
			t.Fatalf("delete %s: %v", sid, err)
		}
	}

	mgr.mu.Lock()
	lockCount, live := len(mgr.locks), len(mgr.machines)
	mgr.mu.Unlock()
	t.Logf("Sessions: %d, Locks Leaked: %d, Machines Leaked: %d", count, lockCount, live)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory", lockCount)
	}
	if live != 0 {
		t.Errorf("%d machines still tracked after delete", live)
	}
}
