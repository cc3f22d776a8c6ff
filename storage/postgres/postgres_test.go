package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	dsn := os.Getenv("FLAPGATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FLAPGATE_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("could not connect to postgres: %v", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("could not ensure schema: %v", err)
	}

	// Clean table for test isolation.
	pool.Exec(ctx, "DELETE FROM leaderboard") //nolint:errcheck

	return NewStore(pool), func() {
		pool.Exec(ctx, "DELETE FROM leaderboard") //nolint:errcheck
		pool.Close()
	}
}

func TestPostgresLeaderboard(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("InsertTop", func(t *testing.T) {
		for _, e := range []struct {
			name  string
			score int
		}{
			{"ada", 12},
			{"bert", 30},
			{"cleo", 7},
		} {
			if err := s.Insert(ctx, e.name, e.score); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
		}

		entries, err := s.Top(ctx, 10)
		if err != nil {
			t.Fatalf("Top failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Name != "bert" {
			t.Errorf("expected bert first, got %s", entries[0].Name)
		}
	})

	t.Run("Limit", func(t *testing.T) {
		entries, err := s.Top(ctx, 2)
		if err != nil {
			t.Fatalf("Top failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 entries, got %d", len(entries))
		}
	})

	t.Run("Duplicates", func(t *testing.T) {
		if err := s.Insert(ctx, "ada", 12); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		entries, err := s.Top(ctx, 10)
		if err != nil {
			t.Fatalf("Top failed: %v", err)
		}
		if len(entries) != 4 {
			t.Fatalf("expected 4 entries after duplicate insert, got %d", len(entries))
		}
	})
}
