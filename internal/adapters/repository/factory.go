package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/duo-sync-engine/internal/config"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

// Stores bundles the configured document store with the connections it
// holds, so callers can share the Redis client and release everything once.
type Stores struct {
	Documents domain.DocumentStore
	Redis     *redis.Client

	closers []func() error
}

func (s *Stores) Ping(ctx context.Context) error {
	if p, ok := s.Documents.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenStores connects the backend selected in cfg. A positive cache TTL puts
// a Redis read-through cache in front of the file and postgres backends.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	connectRedis := func() error {
		if s.Redis != nil {
			return nil
		}
		rdb, err := cache.NewRedisClient(cfg.Store.Redis)
		if err != nil {
			return err
		}
		s.Redis = rdb
		s.closers = append(s.closers, rdb.Close)
		return nil
	}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		s.Documents = NewInMemoryDocumentStore()

	case config.BackendRedis:
		if err := connectRedis(); err != nil {
			return nil, fmt.Errorf("store: %w: %v", domain.ErrStoreUnavailable, err)
		}
		s.Documents = NewRedisDocumentStore(s.Redis, cfg.Store.KeyPrefix)

	case config.BackendPostgres:
		log.Println("[STORE] Connecting to database...")
		db, err := sqlx.ConnectContext(ctx, "pgx", cfg.Store.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("store: %w: %v", domain.ErrStoreUnavailable, err)
		}
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		s.closers = append(s.closers, db.Close)

		pg := NewPostgresDocumentStore(db, cfg.Store.Postgres.Table)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Documents = pg
		log.Println("[STORE] Database connected successfully.")

	default:
		s.Documents = NewFileDocumentStore(cfg.DataDir)
	}

	if cfg.Store.CacheTTL > 0 && (cfg.Store.Backend == config.BackendFile || cfg.Store.Backend == config.BackendPostgres) {
		if err := connectRedis(); err != nil {
			log.Printf("[CACHE] Redis unavailable, running without cache: %v", err)
		} else {
			s.Documents = NewCachedDocumentStore(s.Documents, s.Redis, cfg.Store.CacheTTL)
		}
	}

	return s, nil
}
