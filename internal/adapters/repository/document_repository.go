package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

var (
	_ domain.ProgressRepository   = (*ProgressRepository)(nil)
	_ domain.StatisticsRepository = (*StatisticsRepository)(nil)
)

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ProgressRepository struct {
	store domain.DocumentStore
	key   string
}

func NewProgressRepository(store domain.DocumentStore, key string) *ProgressRepository {
	return &ProgressRepository{store: store, key: key}
}

func (r *ProgressRepository) LoadHistory(ctx context.Context) (domain.History, error) {
	doc, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("progress repository: failed to load %s: %w", r.key, err)
	}
	return domain.DecodeHistory(doc)
}

func (r *ProgressRepository) SaveHistory(ctx context.Context, history domain.History) error {
	if history == nil {
		history = domain.History{}
	}
	return saveDocument(ctx, r.store, r.key, history)
}

type StatisticsRepository struct {
	store domain.DocumentStore
	key   string
}

func NewStatisticsRepository(store domain.DocumentStore, key string) *StatisticsRepository {
	return &StatisticsRepository{store: store, key: key}
}

func (r *StatisticsRepository) LoadStatistics(ctx context.Context) (domain.RunStatistics, error) {
	doc, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("statistics repository: failed to load %s: %w", r.key, err)
	}
	return domain.DecodeStatistics(doc)
}

func (r *StatisticsRepository) SaveStatistics(ctx context.Context, stats domain.RunStatistics) error {
	if stats == nil {
		stats = domain.RunStatistics{}
	}
	return saveDocument(ctx, r.store, r.key, stats)
}

// saveDocument writes v as indented JSON. Map keys are emitted sorted, so
// unchanged data produces byte-identical documents.
func saveDocument(ctx context.Context, store domain.DocumentStore, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	data = append(data, '\n')

	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
