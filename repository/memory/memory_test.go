package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

func TestTaskListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	repo := NewTaskRepository(store)

	for _, task := range []*domain.Task{
		{UserID: "u1", Title: "first", Status: domain.TaskPending, GoalID: "g1"},
		{UserID: "u1", Title: "second", Status: domain.TaskCompleted},
		{UserID: "u2", Title: "other", Status: domain.TaskPending},
		{UserID: "u1", Title: "third", Status: domain.TaskPending, GoalID: "g1"},
	} {
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "first", all[2].Title)

	pending, err := repo.List(ctx, repository.TaskFilter{UserID: "u1", Status: string(domain.TaskPending)})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	paged, err := repo.List(ctx, repository.TaskFilter{UserID: "u1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "second", paged[0].Title)

	byGoal, err := repo.ListByGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, byGoal, 2)

	none, err := repo.ListByGoal(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTaskUpdateKeepsOwnerAndCreation(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(NewStore())
	created, err := repo.Create(ctx, &domain.Task{UserID: "u1", Title: "a"})
	require.NoError(t, err)

	changed := *created
	changed.UserID = "u2"
	changed.Title = "b"
	require.NoError(t, repo.Update(ctx, &changed))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "b", got.Title)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Task{ID: "nope"}), domain.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), domain.ErrTaskNotFound)
}

func TestGetByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(NewStore())
	created, err := repo.Create(ctx, &domain.Task{UserID: "u1", Title: "a"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Title)
}

func TestGoalUpdateDoesNotTouchProgress(t *testing.T) {
	ctx := context.Background()
	repo := NewGoalRepository(NewStore())
	g, err := repo.Create(ctx, &domain.Goal{UserID: "u1", Title: "g"})
	require.NoError(t, err)

	_, err = repo.UpdateProgress(ctx, g.ID, 40)
	require.NoError(t, err)

	edit := *g
	edit.Progress = 99
	require.NoError(t, repo.Update(ctx, &edit))

	got, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)

	_, err = repo.UpdateProgress(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestStreakConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewStreakRepository(NewStore())
	day1 := domain.Date{Year: 2024, Month: time.March, Day: 1}
	day2 := day1.AddDays(1)

	_, err := repo.Create(ctx, &domain.Streak{UserID: "u1", CurrentStreak: 1, LongestStreak: 1, LastCompletedDate: &day1})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Streak{UserID: "u1", CurrentStreak: 1, LongestStreak: 1, LastCompletedDate: &day1})
	assert.ErrorIs(t, err, domain.ErrStreakConflict)

	next := &domain.Streak{UserID: "u1", CurrentStreak: 2, LongestStreak: 2, LastCompletedDate: &day2}
	require.NoError(t, repo.Update(ctx, next, &day1))
	assert.ErrorIs(t, repo.Update(ctx, next, &day1), domain.ErrStreakConflict, "stale expectation")
	assert.ErrorIs(t, repo.Update(ctx, &domain.Streak{UserID: "u9"}, nil), domain.ErrStreakConflict)

	got, err := repo.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStreak)
	assert.True(t, got.LastCompletedDate.Equal(day2))

	_, err = repo.GetByUser(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrStreakNotFound)
}

func TestSummaryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewSummaryCache().(*summaryCache)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "u1", []byte("x"), time.Minute))
	payload, ok, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), payload)

	now = now.Add(time.Minute)
	_, ok, err = cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
