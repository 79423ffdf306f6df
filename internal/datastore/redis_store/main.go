package redis_store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"nftconnect/internal/models"
)

var ErrNonceNotFound = errors.New("nonce not found")

func dbKeyNonce(payload string) string {
	return fmt.Sprintf("nonce:%s", payload)
}

func SetNonce(ctx context.Context, cmd redis.Cmdable, record *models.NonceRecord, expiration time.Duration) error {
	b, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}

	// a payload collision must never overwrite a live nonce
	ok, err := cmd.SetNX(ctx, dbKeyNonce(record.Payload), b, expiration).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("nonce %s already issued", record.Payload)
	}
	return nil
}

// TakeNonce reads and deletes the nonce in one step.
func TakeNonce(ctx context.Context, cmd redis.Cmdable, payload string) (*models.NonceRecord, error) {
	b, err := cmd.GetDel(ctx, dbKeyNonce(payload)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNonceNotFound
	}
	if err != nil {
		return nil, err
	}

	var record models.NonceRecord
	if err := msgpack.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

type NonceStore struct {
	client redis.UniversalClient
}

func NewNonceStore(client redis.UniversalClient) *NonceStore {
	return &NonceStore{client}
}

func (s *NonceStore) Put(ctx context.Context, record *models.NonceRecord, ttl time.Duration) error {
	return SetNonce(ctx, s.client, record, ttl)
}

func (s *NonceStore) Take(ctx context.Context, payload string) (*models.NonceRecord, error) {
	return TakeNonce(ctx, s.client, payload)
}
