package domain

import (
	"context"
	"errors"
)

var (
	ErrStoreUnavailable = errors.New("document store unavailable")
)

type DocumentStore interface {
	// Get returns the raw document stored under key.
	// A missing key is not an error: implementations return (nil, nil).
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the whole document stored under key.
	Set(ctx context.Context, key string, doc []byte) error
}

type ProgressRepository interface {
	// LoadHistory returns the persisted history, migrating legacy shapes.
	// A missing document yields an empty history.
	LoadHistory(ctx context.Context) (History, error)

	SaveHistory(ctx context.Context, history History) error
}

type StatisticsRepository interface {
	LoadStatistics(ctx context.Context) (RunStatistics, error)
	SaveStatistics(ctx context.Context, stats RunStatistics) error
}
