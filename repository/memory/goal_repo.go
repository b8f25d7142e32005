package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

type goalRepository struct {
	store *Store
}

func NewGoalRepository(store *Store) repository.GoalRepository {
	return &goalRepository{store: store}
}

func (r *goalRepository) GetByID(_ context.Context, id string) (*domain.Goal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	existing, ok := r.store.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	goal := existing.item
	return &goal, nil
}

func (r *goalRepository) List(_ context.Context, filter repository.GoalFilter) ([]domain.Goal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]*row[domain.Goal], 0, len(r.store.goals))
	for _, g := range r.store.goals {
		if filter.UserID != "" && g.item.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(g.item.Status) != filter.Status {
			continue
		}
		rows = append(rows, g)
	}
	newestFirst(rows, func(g domain.Goal) time.Time { return g.CreatedAt })

	goals := make([]domain.Goal, 0, len(rows))
	for _, g := range rows {
		goals = append(goals, g.item)
	}
	return page(goals, filter.Limit, filter.Offset), nil
}

func (r *goalRepository) Create(_ context.Context, goal *domain.Goal) (*domain.Goal, error) {
	if goal == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := r.store.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	r.store.goals[goal.ID] = &row[domain.Goal]{seq: r.store.nextSeq(), item: *goal}
	return goal, nil
}

func (r *goalRepository) Update(_ context.Context, goal *domain.Goal) error {
	if goal == nil {
		return domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.goals[goal.ID]
	if !ok {
		return domain.ErrGoalNotFound
	}
	goal.UserID = existing.item.UserID
	goal.Progress = existing.item.Progress
	goal.CreatedAt = existing.item.CreatedAt
	goal.UpdatedAt = r.store.Now()
	existing.item = *goal
	return nil
}

func (r *goalRepository) UpdateProgress(_ context.Context, id string, progress int) (*domain.Goal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	existing.item.Progress = progress
	existing.item.UpdatedAt = r.store.Now()
	goal := existing.item
	return &goal, nil
}

// Delete removes the goal and unlinks its tasks and sub-goals, like the
// ON DELETE SET NULL foreign keys of the Postgres schema.
func (r *goalRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.goals[id]; !ok {
		return domain.ErrGoalNotFound
	}
	delete(r.store.goals, id)
	for _, t := range r.store.tasks {
		if t.item.GoalID == id {
			t.item.GoalID = ""
		}
	}
	for _, g := range r.store.goals {
		if g.item.ParentGoalID == id {
			g.item.ParentGoalID = ""
		}
	}
	return nil
}
