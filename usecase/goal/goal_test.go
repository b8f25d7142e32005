package goal

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/metrics"
	"github.com/fastygo/todomore/repository"
	"github.com/fastygo/todomore/repository/memory"
)

type fixture struct {
	uc    *UseCase
	tasks repository.TaskRepository
	goals repository.GoalRepository
	cache repository.SummaryCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	f := fixture{
		tasks: memory.NewTaskRepository(store),
		goals: memory.NewGoalRepository(store),
		cache: memory.NewSummaryCache(),
	}
	f.uc = New(f.goals, f.tasks, f.cache, nil, nil)
	return f
}

func (f fixture) goal(t *testing.T, userID string) *domain.Goal {
	t.Helper()
	g, err := f.uc.CreateGoal(context.Background(), &domain.Goal{UserID: userID, Title: "Ship v1"})
	require.NoError(t, err)
	return g
}

func (f fixture) task(t *testing.T, goalID string, status domain.TaskStatus) {
	t.Helper()
	_, err := f.tasks.Create(context.Background(), &domain.Task{
		UserID: "u1", Title: "step", Status: status, Priority: domain.PriorityMedium, GoalID: goalID,
	})
	require.NoError(t, err)
}

func TestProgress(t *testing.T) {
	cases := []struct{ completed, total, want int }{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds half away from zero
		{1, 7, 14},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Progress(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}
}

func TestRecalculateProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.goal(t, "u1")

	updated, err := f.uc.RecalculateProgress(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Progress, "goal without tasks")

	f.task(t, g.ID, domain.TaskCompleted)
	f.task(t, g.ID, domain.TaskPending)
	f.task(t, g.ID, domain.TaskInProgress)
	f.task(t, "", domain.TaskCompleted)

	updated, err = f.uc.RecalculateProgress(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, updated.Progress)

	stored, err := f.goals.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, stored.Progress)
}

func TestRecalculateLeavesStatusAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.goal(t, "u1")
	f.task(t, g.ID, domain.TaskCompleted)

	updated, err := f.uc.RecalculateProgress(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, domain.GoalNotStarted, updated.Status)
}

func TestRecalculateMissingGoal(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RecalculateProgress(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestRecalculateCountsMetrics(t *testing.T) {
	store := memory.NewStore()
	m := metrics.New("test")
	uc := New(memory.NewGoalRepository(store), memory.NewTaskRepository(store), nil, m, nil)

	_, _ = uc.RecalculateProgress(context.Background(), "missing")
	series, err := testutil.GatherAndCount(m.Registry(), "test_goal_progress_recomputes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestCreateGoalForcesProgressAndDefaults(t *testing.T) {
	f := newFixture(t)
	g, err := f.uc.CreateGoal(context.Background(), &domain.Goal{UserID: "u1", Title: "x", Progress: 80})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Progress)
	assert.Equal(t, domain.GoalNotStarted, g.Status)

	_, err = f.uc.CreateGoal(context.Background(), &domain.Goal{Title: "no owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCreateGoalChecksParentOwnership(t *testing.T) {
	f := newFixture(t)
	other := f.goal(t, "u2")

	_, err := f.uc.CreateGoal(context.Background(), &domain.Goal{UserID: "u1", Title: "child", ParentGoalID: other.ID})
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestUpdateGoalKeepsProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.goal(t, "u1")
	f.task(t, g.ID, domain.TaskCompleted)
	_, err := f.uc.RecalculateProgress(ctx, g.ID)
	require.NoError(t, err)

	status := domain.GoalInProgress
	smart := domain.Smart{Specific: "launch", TimeBound: "Q3"}
	updated, err := f.uc.UpdateGoal(ctx, "u1", g.ID, domain.GoalPatch{Status: &status, Smart: &smart})
	require.NoError(t, err)
	assert.Equal(t, domain.GoalInProgress, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, "Q3", updated.Smart.TimeBound)
}

func TestGoalOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.goal(t, "u1")

	_, err := f.uc.GetGoal(ctx, "u2", g.ID)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	title := "hijack"
	_, err = f.uc.UpdateGoal(ctx, "u2", g.ID, domain.GoalPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	assert.ErrorIs(t, f.uc.DeleteGoal(ctx, "u2", g.ID), domain.ErrGoalNotFound)
}

func TestDeleteGoalUnlinksTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.goal(t, "u1")
	f.task(t, g.ID, domain.TaskPending)

	require.NoError(t, f.uc.DeleteGoal(ctx, "u1", g.ID))

	tasks, err := f.tasks.List(ctx, repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Empty(t, tasks[0].GoalID)
}

func TestMutationsInvalidateSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, "u1", []byte(`{}`), 0))

	g := f.goal(t, "u1")
	_, ok, err := f.cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.cache.Set(ctx, "u1", []byte(`{}`), 0))
	_, err = f.uc.RecalculateProgress(ctx, g.ID)
	require.NoError(t, err)
	_, ok, _ = f.cache.Get(ctx, "u1")
	assert.False(t, ok)
}
