package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*CachedDocumentStore)(nil)

const (
	defaultCacheTTL   = 30 * time.Minute
	maxCachedDocument = 1 << 20
)

// CachedDocumentStore is a Redis read-through cache in front of another store.
type CachedDocumentStore struct {
	next  domain.DocumentStore
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedDocumentStore(next domain.DocumentStore, cache *redis.Client, ttl time.Duration) *CachedDocumentStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedDocumentStore{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func (s *CachedDocumentStore) cacheKey(key string) string {
	return fmt.Sprintf("documents:%s", key)
}

func (s *CachedDocumentStore) invalidate(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, s.cacheKey(key)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate %s: %v", key, err)
	}
}

func (s *CachedDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	ck := s.cacheKey(key)

	val, err := s.cache.Get(ctx, ck).Bytes()
	if err == nil {
		if json.Valid(val) {
			return val, nil
		}

		log.Printf("[CACHE] Corrupted data for %s, cleaning up key", key)
		s.cache.Del(ctx, ck)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	doc, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	if len(doc) > maxCachedDocument {
		log.Printf("[CACHE] %s is %d bytes, serving uncached", key, len(doc))
		return doc, nil
	}

	if setErr := s.cache.Set(ctx, ck, doc, s.ttl).Err(); setErr != nil {
		log.Printf("[CACHE] Redis set error: %v", setErr)
	}

	return doc, nil
}

func (s *CachedDocumentStore) Set(ctx context.Context, key string, doc []byte) error {
	if err := s.next.Set(ctx, key, doc); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

func (s *CachedDocumentStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
