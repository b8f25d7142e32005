package goal

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/metrics"
	appLogger "github.com/fastygo/todomore/pkg/logger"
	"github.com/fastygo/todomore/repository"
)

type UseCase struct {
	goals   repository.GoalRepository
	tasks   repository.TaskRepository
	cache   repository.SummaryCache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(goals repository.GoalRepository, tasks repository.TaskRepository, cache repository.SummaryCache, m *metrics.Metrics, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		goals:   goals,
		tasks:   tasks,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

func (uc *UseCase) ListGoals(ctx context.Context, filter repository.GoalFilter) ([]domain.Goal, error) {
	return uc.goals.List(ctx, filter)
}

// GetGoal returns the goal if userID owns it.
func (uc *UseCase) GetGoal(ctx context.Context, userID, id string) (*domain.Goal, error) {
	goal, err := uc.goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

func (uc *UseCase) CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	if goal == nil || goal.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if goal.Status == "" {
		goal.Status = domain.GoalNotStarted
	}
	if goal.ParentGoalID != "" {
		if _, err := uc.GetGoal(ctx, goal.UserID, goal.ParentGoalID); err != nil {
			return nil, err
		}
	}
	goal.Progress = 0

	created, err := uc.goals.Create(ctx, goal)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, goal.UserID)
	return created, nil
}

// UpdateGoal applies user-editable fields. Progress is not one of them.
func (uc *UseCase) UpdateGoal(ctx context.Context, userID, id string, patch domain.GoalPatch) (*domain.Goal, error) {
	goal, err := uc.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(goal)
	if err := uc.goals.Update(ctx, goal); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, userID)
	return goal, nil
}

func (uc *UseCase) DeleteGoal(ctx context.Context, userID, id string) error {
	if _, err := uc.GetGoal(ctx, userID, id); err != nil {
		return err
	}
	if err := uc.goals.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx, userID)
	return nil
}

// RecalculateProgress stores the rounded share of the goal's linked tasks that
// are completed. Goal status is left as it is.
func (uc *UseCase) RecalculateProgress(ctx context.Context, goalID string) (*domain.Goal, error) {
	goal, err := uc.recalculate(ctx, goalID)
	uc.metrics.ProgressRecomputed(err)
	if err != nil {
		return nil, fmt.Errorf("recalculate goal %s progress: %w", goalID, err)
	}
	uc.invalidate(ctx, goal.UserID)
	return goal, nil
}

func (uc *UseCase) recalculate(ctx context.Context, goalID string) (*domain.Goal, error) {
	tasks, err := uc.tasks.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for i := range tasks {
		if tasks[i].IsCompleted() {
			completed++
		}
	}
	progress := Progress(completed, len(tasks))

	goal, err := uc.goals.UpdateProgress(ctx, goalID, progress)
	if err != nil {
		return nil, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Debug("goal progress recalculated",
		zap.String("goal_id", goalID),
		zap.Int("tasks", len(tasks)),
		zap.Int("completed", completed),
		zap.Int("progress", progress))
	return goal, nil
}

// Progress returns round(100*completed/total), or 0 for a goal without tasks.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func (uc *UseCase) invalidate(ctx context.Context, userID string) {
	if uc.cache == nil || userID == "" {
		return
	}
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("failed to invalidate summary cache", zap.String("user_id", userID), zap.Error(err))
	}
}
