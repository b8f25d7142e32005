package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

type streakRepository struct {
	store *Store
}

func NewStreakRepository(store *Store) repository.StreakRepository {
	return &streakRepository{store: store}
}

func (r *streakRepository) GetByUser(_ context.Context, userID string) (*domain.Streak, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	existing, ok := r.store.streaks[userID]
	if !ok {
		return nil, domain.ErrStreakNotFound
	}
	return cloneStreak(existing), nil
}

func (r *streakRepository) Create(_ context.Context, streak *domain.Streak) (*domain.Streak, error) {
	if streak == nil || streak.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.streaks[streak.UserID]; ok {
		return nil, domain.ErrStreakConflict
	}
	if streak.ID == "" {
		streak.ID = uuid.NewString()
	}
	now := r.store.Now()
	streak.CreatedAt = now
	streak.UpdatedAt = now
	r.store.streaks[streak.UserID] = cloneStreak(streak)
	return streak, nil
}

func (r *streakRepository) Update(_ context.Context, streak *domain.Streak, expectedLast *domain.Date) error {
	if streak == nil || streak.UserID == "" {
		return domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.streaks[streak.UserID]
	if !ok || !sameDate(existing.LastCompletedDate, expectedLast) {
		return domain.ErrStreakConflict
	}
	streak.ID = existing.ID
	streak.CreatedAt = existing.CreatedAt
	if streak.UpdatedAt.IsZero() {
		streak.UpdatedAt = r.store.Now()
	}
	r.store.streaks[streak.UserID] = cloneStreak(streak)
	return nil
}

func sameDate(a, b *domain.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneStreak(s *domain.Streak) *domain.Streak {
	out := *s
	if s.LastCompletedDate != nil {
		last := *s.LastCompletedDate
		out.LastCompletedDate = &last
	}
	return &out
}
