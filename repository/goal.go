package repository

import (
	"context"

	"github.com/fastygo/todomore/domain"
)

type GoalFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

type GoalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	List(ctx context.Context, filter GoalFilter) ([]domain.Goal, error)
	Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)
	Update(ctx context.Context, goal *domain.Goal) error
	// UpdateProgress writes only the derived progress column and returns the stored goal.
	UpdateProgress(ctx context.Context, id string, progress int) (*domain.Goal, error)
	Delete(ctx context.Context, id string) error
}
