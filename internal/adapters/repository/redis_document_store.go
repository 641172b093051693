package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*RedisDocumentStore)(nil)

// RedisDocumentStore keeps documents as plain string values without expiry.
type RedisDocumentStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisDocumentStore(rdb *redis.Client, prefix string) *RedisDocumentStore {
	return &RedisDocumentStore{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (s *RedisDocumentStore) redisKey(key string) string {
	return s.prefix + key
}

func (s *RedisDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis store: get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisDocumentStore) Set(ctx context.Context, key string, doc []byte) error {
	if err := s.rdb.Set(ctx, s.redisKey(key), doc, 0).Err(); err != nil {
		return fmt.Errorf("redis store: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisDocumentStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
