// Package postgres implements storage.Leaderboard backed by PostgreSQL.
//
// Entries are plain rows keyed by a generated UUID, never by player name,
// since duplicate (name, score) submissions are each their own row. The
// score index keeps the top-N read cheap.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dstern/flapgate/storage"
)

// Store implements storage.Leaderboard backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Leaderboard = (*Store)(nil)

// NewStore returns a Store backed by the given pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromDSN creates a connection pool from a DSN string, ensures the
// schema exists, and returns a new Store.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(pool), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Insert(ctx context.Context, name string, score int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard (id, name, score) VALUES ($1, $2, $3)`,
		uuid.NewString(), name, score)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Top(ctx context.Context, n int) ([]storage.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, score, recorded_at
		 FROM leaderboard
		 ORDER BY score DESC, recorded_at ASC
		 LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	var entries []storage.Entry
	for rows.Next() {
		var e storage.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
