package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/govform/pkg/adapters/redis"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunSlotStoreContract(t, store)
}

func TestRedisStore_NewFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))

	_, err = redis.New("://not a url")
	assert.Error(t, err)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))

	require.NoError(t, store.Set(context.Background(), "s1:govFormStep", "2"))
	assert.True(t, mr.Exists("test:s1:govFormStep"))
	got, err := mr.Get("test:s1:govFormStep")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	store := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock))
	ctx := context.Background()
	key := "session-ttl:govFormData"

	require.NoError(t, store.Set(ctx, key, `{"city":"x"}`))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	// Expire the key in miniredis and move our clock past the index score.
	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
