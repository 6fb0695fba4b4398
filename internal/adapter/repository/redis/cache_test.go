package redis

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "foo", []byte("bar"), time.Minute))

	val, err := cache.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", string(val))
	assert.True(t, mr.Exists("coinledger:cache:foo"))
}

func TestCacheGetMissing(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	_, err := NewCache(client).Get(context.Background(), "absent")
	assert.ErrorIs(t, err, redislib.Nil)
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "a", "b"))

	_, err := cache.Get(ctx, "a")
	assert.ErrorIs(t, err, redislib.Nil)
	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, redislib.Nil)
}

func TestCacheIncr(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	n, err := cache.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = cache.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	val, err := cache.Get(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, "2", string(val))
}
