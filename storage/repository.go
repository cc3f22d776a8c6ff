// Package storage provides the storage abstraction for leaderboard entries.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("leaderboard store unavailable")

// Entry is one persisted leaderboard row. Duplicate (Name, Score) pairs are
// allowed; every accepted submission is its own row, so each entry carries
// its own ID.
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Leaderboard defines the insert/query capability the admission controller
// and the read path delegate to. Top returns at most n entries ordered by
// score descending, oldest first among ties.
type Leaderboard interface {
	Insert(ctx context.Context, name string, score int) error
	Top(ctx context.Context, n int) ([]Entry, error)
}
