package repository

import (
	"context"

	"github.com/fastygo/todomore/domain"
)

// MaxListLimit caps the page size of every List call.
const MaxListLimit = 100

type TaskFilter struct {
	UserID string
	Status string
	GoalID string
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListByGoal returns every task linked to the goal, regardless of owner or paging.
	ListByGoal(ctx context.Context, goalID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
