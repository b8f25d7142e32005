package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
	"github.com/fastygo/todomore/usecase/goal"
)

const pageSize = 100

type StreakReader interface {
	Get(ctx context.Context, userID string) (*domain.Streak, error)
}

type GoalProgress struct {
	GoalID         string            `json:"goal_id"`
	Title          string            `json:"title"`
	Status         domain.GoalStatus `json:"status"`
	Progress       int               `json:"progress"`
	LinkedTasks    int               `json:"linked_tasks"`
	CompletedTasks int               `json:"completed_tasks"`
}

type Summary struct {
	TotalTasks      int            `json:"total_tasks"`
	CompletedTasks  int            `json:"completed_tasks"`
	CompletedToday  int            `json:"completed_today"`
	GoalsInProgress int            `json:"goals_in_progress"`
	GoalsAchieved   int            `json:"goals_achieved"`
	Streak          *domain.Streak `json:"streak"`
	Goals           []GoalProgress `json:"goals"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

type UseCase struct {
	tasks   repository.TaskRepository
	goals   repository.GoalRepository
	streaks StreakReader
	cache   repository.SummaryCache
	ttl     time.Duration
	logger  *zap.Logger

	Now func() time.Time
}

func New(tasks repository.TaskRepository, goals repository.GoalRepository, streaks StreakReader, cache repository.SummaryCache, ttl time.Duration, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:   tasks,
		goals:   goals,
		streaks: streaks,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		Now:     time.Now,
	}
}

// Summary aggregates the user's tasks, goals and streak. Per-goal progress is
// computed from the tasks themselves, so it is accurate even if a stored
// progress value is stale.
func (uc *UseCase) Summary(ctx context.Context, userID string) (*Summary, error) {
	if cached, ok := uc.fromCache(ctx, userID); ok {
		return cached, nil
	}

	tasks, err := uc.allTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := uc.allGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak, err := uc.streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := uc.Now().UTC()
	summary := Build(tasks, goals, domain.Today(now))
	summary.Streak = streak
	summary.GeneratedAt = now

	uc.toCache(ctx, userID, summary)
	return summary, nil
}

// Build computes the task and goal counters for the given UTC day.
func Build(tasks []domain.Task, goals []domain.Goal, today domain.Date) *Summary {
	summary := &Summary{TotalTasks: len(tasks), Goals: make([]GoalProgress, 0, len(goals))}

	type counts struct{ linked, completed int }
	byGoal := make(map[string]*counts, len(goals))
	for i := range tasks {
		t := &tasks[i]
		if t.IsCompleted() {
			summary.CompletedTasks++
			if domain.Today(t.UpdatedAt).Equal(today) {
				summary.CompletedToday++
			}
		}
		if t.GoalID == "" {
			continue
		}
		c, ok := byGoal[t.GoalID]
		if !ok {
			c = &counts{}
			byGoal[t.GoalID] = c
		}
		c.linked++
		if t.IsCompleted() {
			c.completed++
		}
	}

	for _, g := range goals {
		switch g.Status {
		case domain.GoalInProgress:
			summary.GoalsInProgress++
		case domain.GoalAchieved:
			summary.GoalsAchieved++
		}
		row := GoalProgress{GoalID: g.ID, Title: g.Title, Status: g.Status}
		if c, ok := byGoal[g.ID]; ok {
			row.LinkedTasks = c.linked
			row.CompletedTasks = c.completed
		}
		row.Progress = goal.Progress(row.CompletedTasks, row.LinkedTasks)
		summary.Goals = append(summary.Goals, row)
	}
	return summary
}

func (uc *UseCase) allTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var all []domain.Task
	for offset := 0; ; offset += pageSize {
		batch, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: userID, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

func (uc *UseCase) allGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	var all []domain.Goal
	for offset := 0; ; offset += pageSize {
		batch, err := uc.goals.List(ctx, repository.GoalFilter{UserID: userID, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

func (uc *UseCase) fromCache(ctx context.Context, userID string) (*Summary, bool) {
	if uc.cache == nil {
		return nil, false
	}
	payload, ok, err := uc.cache.Get(ctx, userID)
	if err != nil {
		uc.logger.Warn("summary cache read failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (uc *UseCase) toCache(ctx context.Context, userID string, summary *Summary) {
	if uc.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, userID, payload, uc.ttl); err != nil {
		uc.logger.Warn("summary cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}
