package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

type taskRepository struct {
	store *Store
}

func NewTaskRepository(store *Store) repository.TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	existing, ok := r.store.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	task := existing.item
	return &task, nil
}

func (r *taskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := r.collect(func(t domain.Task) bool {
		if filter.UserID != "" && t.UserID != filter.UserID {
			return false
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			return false
		}
		if filter.GoalID != "" && t.GoalID != filter.GoalID {
			return false
		}
		return true
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

func (r *taskRepository) ListByGoal(_ context.Context, goalID string) ([]domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.collect(func(t domain.Task) bool { return goalID != "" && t.GoalID == goalID }), nil
}

func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.store.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.store.tasks[task.ID] = &row[domain.Task]{seq: r.store.nextSeq(), item: *task}
	return task, nil
}

func (r *taskRepository) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.UserID = existing.item.UserID
	task.CreatedAt = existing.item.CreatedAt
	task.UpdatedAt = r.store.Now()
	existing.item = *task
	return nil
}

func (r *taskRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.store.tasks, id)
	for _, t := range r.store.tasks {
		if t.item.ParentTaskID == id {
			t.item.ParentTaskID = ""
		}
	}
	return nil
}

// collect must be called with the store lock held.
func (r *taskRepository) collect(keep func(domain.Task) bool) []domain.Task {
	rows := make([]*row[domain.Task], 0, len(r.store.tasks))
	for _, t := range r.store.tasks {
		if keep(t.item) {
			rows = append(rows, t)
		}
	}
	newestFirst(rows, func(t domain.Task) time.Time { return t.CreatedAt })

	tasks := make([]domain.Task, 0, len(rows))
	for _, t := range rows {
		tasks = append(tasks, t.item)
	}
	return tasks
}
