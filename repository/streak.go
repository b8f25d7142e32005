package repository

import (
	"context"

	"github.com/fastygo/todomore/domain"
)

type StreakRepository interface {
	// GetByUser returns domain.ErrStreakNotFound when the user has no streak yet.
	GetByUser(ctx context.Context, userID string) (*domain.Streak, error)
	// Create inserts the first streak of a user; domain.ErrStreakConflict if one exists.
	Create(ctx context.Context, streak *domain.Streak) (*domain.Streak, error)
	// Update writes the counters only if the stored last completed date still
	// equals expectedLast (nil matching NULL); otherwise domain.ErrStreakConflict.
	Update(ctx context.Context, streak *domain.Streak, expectedLast *domain.Date) error
}
