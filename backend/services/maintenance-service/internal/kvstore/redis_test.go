package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStore(client, ttl)
}

func TestRedisStore(t *testing.T) {
	_, store := setupRedisStore(t, 0)
	exerciseStore(t, store)
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	mr, store := setupRedisStore(t, time.Hour)
	require.NoError(t, store.Put(context.Background(), "session:x", []byte("{}")))

	assert.Equal(t, time.Hour, mr.TTL("session:x"))
}

func TestRedisStorePrefixIsLiteral(t *testing.T) {
	_, store := setupRedisStore(t, 0)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "session:a", []byte("1")))
	require.NoError(t, store.Put(ctx, "s*:b", []byte("2")))

	values, err := store.GetByPrefix(ctx, "s*")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "2", string(values[0]))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, store := setupRedisStore(t, 0)
	mr.Close()

	err := store.Put(context.Background(), "session:a", []byte("1"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
