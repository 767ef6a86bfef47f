package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/pkg/adapters/memory"
	"github.com/aretw0/govform/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSlotStoreContract(t, store)
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("applicant-%02d:govFormData", i)
			_ = store.Set(ctx, key, "{}")
			_, _ = store.Get(ctx, key)
			_, _ = store.List(ctx)
		}(i)
	}
	wg.Wait()

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 50)
	assert.Equal(t, "applicant-00:govFormData", keys[0])
}
