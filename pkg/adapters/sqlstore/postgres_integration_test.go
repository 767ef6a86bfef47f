//go:build integration

package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/aretw0/govform/pkg/adapters/sqlstore"
	"github.com/aretw0/govform/pkg/ports"
)

func TestPostgresStore_Contract(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("govform"),
		tcpostgres.WithUsername("govform"),
		tcpostgres.WithPassword("govform"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := sqlstore.OpenPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunSlotStoreContract(t, store)
}
