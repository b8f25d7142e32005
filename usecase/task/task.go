package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/metrics"
	appLogger "github.com/fastygo/todomore/pkg/logger"
	"github.com/fastygo/todomore/repository"
	"github.com/fastygo/todomore/usecase"
)

// StreakUpdater is notified once per task that becomes Completed.
type StreakUpdater interface {
	UpdateOnCompletion(ctx context.Context, userID string) (*domain.Streak, error)
}

// GoalService resolves owned goals and recomputes their progress.
type GoalService interface {
	GetGoal(ctx context.Context, userID, id string) (*domain.Goal, error)
	RecalculateProgress(ctx context.Context, goalID string) (*domain.Goal, error)
}

// Result is a persisted task together with the derived state its mutation refreshed.
type Result struct {
	Task     *domain.Task   `json:"task"`
	Streak   *domain.Streak `json:"streak,omitempty"`
	Goals    []domain.Goal  `json:"goals,omitempty"`
	Buffered bool           `json:"buffered,omitempty"`
}

type UseCase struct {
	tasks   repository.TaskRepository
	goals   GoalService
	streaks StreakUpdater
	buffer  usecase.OperationBuffer
	cache   repository.SummaryCache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type Deps struct {
	Tasks   repository.TaskRepository
	Goals   GoalService
	Streaks StreakUpdater
	Buffer  usecase.OperationBuffer
	Cache   repository.SummaryCache
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func New(deps Deps) *UseCase {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &UseCase{
		tasks:   deps.Tasks,
		goals:   deps.Goals,
		streaks: deps.Streaks,
		buffer:  deps.Buffer,
		cache:   deps.Cache,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

// GetTask returns the task if userID owns it.
func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// CreateTask stores a new task and refreshes the progress of its goal if it
// has one. Creation is not a status transition, so a task created as
// Completed leaves the streak alone.
//
// When a derived-state update fails the returned Result still holds the stored task.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*Result, error) {
	if task == nil || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if task.Status == "" {
		task.Status = domain.TaskPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := uc.checkLinks(ctx, task); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task) {
			return &Result{Task: task, Buffered: true}, nil
		}
		return nil, err
	}

	res := &Result{Task: created}
	return res, uc.afterMutation(ctx, res, created.UserID, false, created.GoalID, "")
}

// UpdateTask applies patch to the task. A transition into Completed updates
// the streak; the current goal and, when the link changed, the previous goal
// get their progress recomputed.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (*Result, error) {
	prev, err := uc.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next := *prev
	patch.Apply(&next)
	if next.ParentTaskID == next.ID {
		return nil, domain.Invalid("task cannot be its own parent")
	}
	if err := uc.checkLinks(ctx, &next); err != nil {
		return nil, err
	}

	if err := uc.tasks.Update(ctx, &next); err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) && uc.shouldBuffer(ctx, usecase.OperationUpdate, &next) {
			return &Result{Task: &next, Buffered: true}, nil
		}
		return nil, err
	}

	completing := !prev.IsCompleted() && next.IsCompleted()
	previousGoal := ""
	if prev.GoalID != next.GoalID {
		previousGoal = prev.GoalID
	}

	res := &Result{Task: &next}
	return res, uc.afterMutation(ctx, res, userID, completing, next.GoalID, previousGoal)
}

// DeleteTask removes the task and recomputes the progress of the goal it was linked to.
func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) (*Result, error) {
	prev, err := uc.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := uc.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, prev) {
			return &Result{Task: prev, Buffered: true}, nil
		}
		return nil, err
	}

	res := &Result{Task: prev}
	return res, uc.afterMutation(ctx, res, userID, false, prev.GoalID, "")
}

// afterMutation runs the derived-state updates one after another and stops at
// the first failure. The task mutation itself is not undone.
func (uc *UseCase) afterMutation(ctx context.Context, res *Result, userID string, completed bool, goalID, previousGoalID string) error {
	uc.invalidate(ctx, userID)

	if completed && uc.streaks != nil {
		streak, err := uc.streaks.UpdateOnCompletion(ctx, userID)
		if err != nil {
			return uc.sideEffectFailed(ctx, res, err)
		}
		res.Streak = streak
	}

	if uc.goals == nil {
		return nil
	}
	for _, id := range []string{goalID, previousGoalID} {
		if id == "" {
			continue
		}
		goal, err := uc.goals.RecalculateProgress(ctx, id)
		if err != nil {
			return uc.sideEffectFailed(ctx, res, err)
		}
		res.Goals = append(res.Goals, *goal)
	}
	return nil
}

func (uc *UseCase) sideEffectFailed(ctx context.Context, res *Result, err error) error {
	appLogger.WithRequestID(ctx, uc.logger).Error("derived state update failed",
		zap.String("task_id", res.Task.ID),
		zap.Error(err))
	return fmt.Errorf("task %s saved but derived state is stale: %w", res.Task.ID, err)
}

// checkLinks rejects goal and parent references the task owner does not own.
func (uc *UseCase) checkLinks(ctx context.Context, task *domain.Task) error {
	if task.GoalID != "" && uc.goals != nil {
		if _, err := uc.goals.GetGoal(ctx, task.UserID, task.GoalID); err != nil {
			if errors.Is(err, domain.ErrGoalNotFound) {
				return domain.Invalid("goal_id does not reference an existing goal")
			}
			return err
		}
	}
	if task.ParentTaskID != "" {
		if _, err := uc.GetTask(ctx, task.UserID, task.ParentTaskID); err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return domain.Invalid("parent_task_id does not reference an existing task")
			}
			return err
		}
	}
	return nil
}

func (uc *UseCase) invalidate(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("failed to invalidate summary cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.metrics.OperationBuffered(operation)
	uc.logger.Warn("task operation buffered", zap.String("operation", operation), zap.String("task_id", task.ID))
	return true
}
