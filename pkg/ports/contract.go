package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/govform/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSlotStoreContract runs a suite of tests to verify that a SlotStore
// implementation adheres to the defined interface contract.
func RunSlotStoreContract(t *testing.T, store SlotStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + ":govFormData"
		value := `{"fullName":"Jane Doe","documents":[]}`

		require.NoError(t, store.Set(ctx, key, value), "Set should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, value, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + ":govFormStep"
		require.NoError(t, store.Set(ctx, key, "1"))
		require.NoError(t, store.Set(ctx, key, "2"))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "2", got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrSlotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + ":delete"
		require.NoError(t, store.Set(ctx, key, "x"))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSlotNotFound, "Get after Delete should return ErrSlotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1 := prefix + "-1:govFormData"
		k2 := prefix + "-2:govFormData"
		require.NoError(t, store.Set(ctx, k1, "{}"))
		require.NoError(t, store.Set(ctx, k2, "{}"))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})

	t.Run("Opaque Values", func(t *testing.T) {
		key := prefix + ":opaque"
		value := "línea 1\nline \"2\"\t{}"
		require.NoError(t, store.Set(ctx, key, value))
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
		_ = store.Delete(ctx, key)
	})
}
