package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*PostgresDocumentStore)(nil)

type documentRow struct {
	Key       string    `db:"key"`
	Body      string    `db:"body"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresDocumentStore keeps one JSONB row per document key.
type PostgresDocumentStore struct {
	db    *sqlx.DB
	table string
}

func NewPostgresDocumentStore(db *sqlx.DB, table string) *PostgresDocumentStore {
	return &PostgresDocumentStore{
		db:    db,
		table: pq.QuoteIdentifier(table),
	}
}

func (s *PostgresDocumentStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres store: failed to create %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row documentRow
	query := fmt.Sprintf(`SELECT key, body::text AS body, updated_at FROM %s WHERE key = $1`, s.table)

	err := s.db.GetContext(ctx, &row, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres store: get %s: %w", key, err)
	}
	return []byte(row.Body), nil
}

func (s *PostgresDocumentStore) Set(ctx context.Context, key string, doc []byte) error {
	row := documentRow{
		Key:       key,
		Body:      string(doc),
		UpdatedAt: time.Now().UTC(),
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, body, updated_at)
		VALUES (:key, CAST(:body AS JSONB), :updated_at)
		ON CONFLICT (key) DO UPDATE
		SET body = EXCLUDED.body,
		    updated_at = EXCLUDED.updated_at`, s.table)

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if isInvalidTextRepresentation(err) {
			return fmt.Errorf("postgres store: document %s is not valid JSON: %w", key, err)
		}
		return fmt.Errorf("postgres store: set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresDocumentStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// isInvalidTextRepresentation matches SQLSTATE 22P02 from either driver.
func isInvalidTextRepresentation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "22P02"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02"
	}
	return false
}
