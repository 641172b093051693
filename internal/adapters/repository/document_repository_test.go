package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

type failingStore struct {
	err error
}

func (f failingStore) Get(ctx context.Context, key string) ([]byte, error)   { return nil, f.err }
func (f failingStore) Set(ctx context.Context, key string, doc []byte) error { return f.err }

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing document loads as empty history", func(t *testing.T) {
		repo := NewProgressRepository(NewInMemoryDocumentStore(), "progress.json")

		h, err := repo.LoadHistory(ctx)
		require.NoError(t, err)
		assert.NotNil(t, h)
		assert.Empty(t, h)
	})

	t.Run("Round trip", func(t *testing.T) {
		store := NewInMemoryDocumentStore()
		repo := NewProgressRepository(store, "progress.json")

		want := domain.History{
			"2024/06/01": {XPToday: 20, NumberOfSessions: 1, SessionTime: 300, Streak: 3},
			"2024/06/02": {Streak: 3},
		}
		require.NoError(t, repo.SaveHistory(ctx, want))

		got, err := repo.LoadHistory(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		raw, _ := store.Get(ctx, "progress.json")
		assert.Contains(t, string(raw), "\n  \"2024/06/01\": {\n    \"xp_today\": 20,")
	})

	t.Run("Unchanged history writes identical bytes", func(t *testing.T) {
		store := NewInMemoryDocumentStore()
		repo := NewProgressRepository(store, "progress.json")
		h := domain.History{"2024/06/02": {Streak: 1}, "2024/06/01": {Streak: 1}}

		require.NoError(t, repo.SaveHistory(ctx, h))
		first, _ := store.Get(ctx, "progress.json")
		require.NoError(t, repo.SaveHistory(ctx, h.Clone()))
		second, _ := store.Get(ctx, "progress.json")

		assert.Equal(t, first, second)
	})

	t.Run("Legacy list document migrates", func(t *testing.T) {
		store := NewInMemoryDocumentStore()
		require.NoError(t, store.Set(ctx, "progress.json", []byte("[]")))

		h, err := NewProgressRepository(store, "progress.json").LoadHistory(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.History{}, h)
	})

	t.Run("Store errors are wrapped", func(t *testing.T) {
		boom := errors.New("disk on fire")
		repo := NewProgressRepository(failingStore{err: boom}, "progress.json")

		_, err := repo.LoadHistory(ctx)
		assert.ErrorIs(t, err, boom)

		err = repo.SaveHistory(ctx, domain.History{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestStatisticsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(NewInMemoryDocumentStore(), "statistics.json")

	empty, err := repo.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	stats := domain.RunStatistics{"2024/06/01": "08:00:00"}
	require.NoError(t, repo.SaveStatistics(ctx, stats))

	got, err := repo.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestFileDocumentStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store := NewFileDocumentStore(dir)

	t.Run("Missing file is empty, not an error", func(t *testing.T) {
		doc, err := store.Get(ctx, "duolingo-progress.json")
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Set creates directories and replaces content", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "nested/doc.json", []byte(`{"a":1}`)))
		require.NoError(t, store.Set(ctx, "nested/doc.json", []byte(`{"a":2}`)))

		doc, err := store.Get(ctx, "nested/doc.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":2}`, string(doc))

		entries, err := os.ReadDir(filepath.Join(dir, "nested"))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "Temporary files must not be left behind")
	})

	t.Run("Keys cannot escape the directory", func(t *testing.T) {
		err := store.Set(ctx, "../escape.json", []byte(`{}`))
		assert.ErrorIs(t, err, ErrInvalidKey)

		_, err = store.Get(ctx, "/etc/passwd")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestInMemoryDocumentStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryDocumentStore()

	doc := []byte(`{"k":"v"}`)
	require.NoError(t, store.Set(ctx, "b", doc))
	doc[2] = 'X'

	got, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, string(got), "Store must copy documents on write")

	source := NewInMemoryDocumentStore()
	require.NoError(t, source.Set(ctx, "a", []byte(`{}`)))
	require.NoError(t, store.Seed(ctx, source, "a", "missing"))

	assert.Equal(t, []string{"a", "b"}, store.Keys())
}
