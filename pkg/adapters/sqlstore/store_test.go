package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/pkg/adapters/sqlstore"
	"github.com/aretw0/govform/pkg/ports"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlstore.OpenSQLite(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunSlotStoreContract(t, store)
}

func TestSQLiteStore_ReopenKeepsSlots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")
	ctx := context.Background()

	store, err := sqlstore.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "s1:govFormStep", "3"))
	require.NoError(t, store.Close())

	store, err = sqlstore.OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, "s1:govFormStep")
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}

func TestOpen_RequiresTarget(t *testing.T) {
	_, err := sqlstore.OpenSQLite("  ")
	assert.Error(t, err)
	_, err = sqlstore.OpenPostgres("")
	assert.Error(t, err)
}
