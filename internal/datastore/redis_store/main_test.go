package redis_store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"nftconnect/internal/datastore/redis_store"
	"nftconnect/internal/models"
)

func newStore(t *testing.T) (*redis_store.NonceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_store.NewNonceStore(client), mr
}

func TestNonceStorePutTake(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	issuedAt := time.Now().Truncate(time.Second)
	record := &models.NonceRecord{Payload: "a1b2c3", ClientIP: "10.0.0.1", IssuedAt: issuedAt}
	require.NoError(t, store.Put(ctx, record, 15*time.Minute))
	require.True(t, mr.Exists("nonce:a1b2c3"))
	require.Equal(t, 15*time.Minute, mr.TTL("nonce:a1b2c3"))

	// a live nonce is never overwritten
	err := store.Put(ctx, &models.NonceRecord{Payload: "a1b2c3", ClientIP: "10.0.0.9"}, time.Minute)
	require.Error(t, err)

	got, err := store.Take(ctx, "a1b2c3")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", got.ClientIP)
	require.True(t, issuedAt.Equal(got.IssuedAt))
	require.False(t, mr.Exists("nonce:a1b2c3"))

	_, err = store.Take(ctx, "a1b2c3")
	require.ErrorIs(t, err, redis_store.ErrNonceNotFound)
}

func TestNonceStoreExpiry(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &models.NonceRecord{Payload: "short", IssuedAt: time.Now()}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Take(ctx, "short")
	require.ErrorIs(t, err, redis_store.ErrNonceNotFound)

	// the payload may be issued again once expired
	require.NoError(t, store.Put(ctx, &models.NonceRecord{Payload: "short", IssuedAt: time.Now()}, time.Minute))
}

func TestTakeNonceCorruptValue(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("nonce:broken", "\xc1"))

	_, err := store.Take(context.Background(), "broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, redis_store.ErrNonceNotFound)
}
