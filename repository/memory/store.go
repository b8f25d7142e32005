// Package memory keeps every record in process memory. It backs the
// STORAGE_DRIVER=memory mode and the use case tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

// Store holds tasks, goals and streaks behind a single lock so that
// cross-record rules (goal deletion unlinking tasks) stay consistent.
type Store struct {
	mu      sync.RWMutex
	tasks   map[string]*row[domain.Task]
	goals   map[string]*row[domain.Goal]
	streaks map[string]*domain.Streak // userID -> streak
	seq     int64

	// Now stamps created_at/updated_at; tests may replace it.
	Now func() time.Time
}

type row[T any] struct {
	seq  int64
	item T
}

func NewStore() *Store {
	return &Store{
		tasks:   make(map[string]*row[domain.Task]),
		goals:   make(map[string]*row[domain.Goal]),
		streaks: make(map[string]*domain.Streak),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// newestFirst orders rows by creation time, falling back to insertion order.
func newestFirst[T any](rows []*row[T], created func(T) time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := created(rows[i].item), created(rows[j].item)
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return rows[i].seq > rows[j].seq
	})
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
