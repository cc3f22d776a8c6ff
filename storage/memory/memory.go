// Package memory provides a thread-safe in-memory implementation of
// storage.Leaderboard. Suitable for testing, demos, and single-process use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dstern/flapgate/storage"
)

// Board is a thread-safe in-memory leaderboard.
type Board struct {
	mu      sync.RWMutex
	entries []storage.Entry

	now func() time.Time
}

var _ storage.Leaderboard = (*Board)(nil)

// NewBoard creates a new empty in-memory Board.
func NewBoard() *Board {
	return &Board{now: time.Now}
}

func (b *Board) Insert(ctx context.Context, name string, score int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, storage.Entry{
		ID:         uuid.NewString(),
		Name:       name,
		Score:      score,
		RecordedAt: b.now().UTC(),
	})
	return nil
}

func (b *Board) Top(ctx context.Context, n int) ([]storage.Entry, error) {
	b.mu.RLock()
	entries := make([]storage.Entry, len(b.entries))
	copy(entries, b.entries)
	b.mu.RUnlock()

	sortEntries(entries)
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// Len reports the total number of stored entries, including duplicates.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// sortEntries orders by score descending, oldest first among ties.
func sortEntries(entries []storage.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
}
