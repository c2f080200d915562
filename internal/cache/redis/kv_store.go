package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// KVStore implements domain.KVStore with plain string keys. Callers
// namespace their own keys; values never expire.
type KVStore struct {
	rdb *redis.Client
}

// NewKVStore creates a KVStore.
func NewKVStore(c *Client) *KVStore {
	return &KVStore{rdb: c.Underlying()}
}

// Get returns the value at key or domain.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redis: kv get %s: %w", key, err)
	}
	return v, nil
}

// Set stores value at key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: kv delete %s: %w", key, err)
	}
	return nil
}

// Incr adds one to the integer at key with INCR.
func (s *KVStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: kv incr %s: %w", key, err)
	}
	return n, nil
}

// maxUpdateRetries bounds optimistic retries when key changes under WATCH.
const maxUpdateRetries = 8

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// writer touches key first.
func (s *KVStore) Update(ctx context.Context, key string, fn func(old string, found bool) (string, error)) (string, error) {
	var next string
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, key).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			found, err = false, nil
		}
		if err != nil {
			return err
		}
		if next, err = fn(old, found); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for range maxUpdateRetries {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("redis: kv update %s: %w", key, err)
		}
		return next, nil
	}
	return "", fmt.Errorf("redis: kv update %s: contended: %w", key, domain.ErrInconsistentState)
}

var _ domain.KVStore = (*KVStore)(nil)
