package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS viewer_state (
	study_id   text PRIMARY KEY,
	payload    jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// querier is the subset of *pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps one jsonb row per study in viewer_state.
type PostgresStore struct {
	db querier
}

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// EnsureSchema creates the viewer_state table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create viewer_state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, studyID string) (*Snapshot, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM viewer_state WHERE study_id = $1`, studyID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	return Decode(payload)
}

func (s *PostgresStore) Save(ctx context.Context, studyID string, snap *Snapshot) error {
	if err := ValidStudyID(studyID); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO viewer_state (study_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (study_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`, studyID, string(data))
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, studyID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM viewer_state WHERE study_id = $1`, studyID)
	if err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
