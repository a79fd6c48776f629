package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiniredisStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIdempotencyStoreWithClient(client, ""), mr
}

func TestRedisIdempotencyStore_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins and sets a ttl", func(t *testing.T) {
		store, mr := newMiniredisStore(t)

		ok, err := store.Claim(ctx, "stock_out:u1:k1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		key := DefaultIdempotencyKeyPrefix + "stock_out:u1:k1"
		assert.True(t, mr.Exists(key))
		assert.Equal(t, time.Hour, mr.TTL(key))
	})

	t.Run("second claim loses", func(t *testing.T) {
		store, _ := newMiniredisStore(t)

		_, err := store.Claim(ctx, "k", time.Hour)
		require.NoError(t, err)

		ok, err := store.Claim(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("claim is free again after expiry", func(t *testing.T) {
		store, mr := newMiniredisStore(t)

		_, err := store.Claim(ctx, "k", time.Minute)
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)

		ok, err := store.Claim(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("reports redis errors", func(t *testing.T) {
		store, mr := newMiniredisStore(t)
		mr.SetError("ERR server unavailable")

		_, err := store.Claim(ctx, "k", time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to claim idempotency key")
	})
}

func TestRedisIdempotencyStore_IsClaimedAndRelease(t *testing.T) {
	ctx := context.Background()
	store, _ := newMiniredisStore(t)

	claimed, err := store.IsClaimed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, claimed)

	_, err = store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)

	claimed, err = store.IsClaimed(ctx, "k")
	require.NoError(t, err)
	assert.True(t, claimed)

	require.NoError(t, store.Release(ctx, "k"))

	claimed, err = store.IsClaimed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestRedisIdempotencyStore_CloseLeavesSharedClientOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisIdempotencyStoreWithClient(client, "test:")
	require.NoError(t, store.Close())

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("uses in-memory store when redis is disabled", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false})

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("uses redis when reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := NewIdempotencyStoreFactory(
			config.RedisConfig{Enabled: true, Host: mr.Host(), Port: atoiPort(t, mr.Port())},
			WithLogger(zap.NewNop()),
		)

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("falls back to in-memory when redis is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port := atoiPort(t, mr.Port())
		mr.Close()

		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port})

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port := atoiPort(t, mr.Port())
		mr.Close()

		f := NewIdempotencyStoreFactory(
			config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port},
			WithInMemoryFallback(false),
		)

		store, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Nil(t, store)
	})
}

func atoiPort(t *testing.T, s string) int {
	t.Helper()
	port, err := strconv.Atoi(s)
	require.NoError(t, err)
	return port
}
