package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store guards against duplicate order submissions with redis SetNX. A key
// is claimed the first time it is seen and expires after ttl.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// OrderKey namespaces a client-supplied idempotency key.
func (s *Store) OrderKey(key string) string {
	return fmt.Sprintf("idem:order:%s", key)
}

// MessageKey identifies one kafka message for consumer-side dedupe.
func (s *Store) MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:msg:%s:%d:%d", topic, partition, offset)
}

// Seen claims the key and reports whether it had already been claimed.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Release gives a claimed key back, so a request that failed on
// infrastructure rather than business grounds can be retried with the same
// key.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
