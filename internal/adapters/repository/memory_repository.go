package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*InMemoryDocumentStore)(nil)

type InMemoryDocumentStore struct {
	store map[string][]byte

	mu sync.RWMutex
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		store: make(map[string][]byte),
	}
}

func (s *InMemoryDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.store[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

func (s *InMemoryDocumentStore) Set(ctx context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[key] = append([]byte(nil), doc...)
	return nil
}

func (s *InMemoryDocumentStore) Ping(ctx context.Context) error {
	return nil
}

// Keys lists the stored keys in order.
func (s *InMemoryDocumentStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.store))
	for k := range s.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Seed copies the given keys from another store, used for dry runs.
func (s *InMemoryDocumentStore) Seed(ctx context.Context, from domain.DocumentStore, keys ...string) error {
	for _, k := range keys {
		doc, err := from.Get(ctx, k)
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}
		if err := s.Set(ctx, k, doc); err != nil {
			return err
		}
	}
	return nil
}
