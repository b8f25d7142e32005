package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/metrics"
	"github.com/fastygo/todomore/repository"
	"github.com/fastygo/todomore/repository/memory"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advance(days int) { c.now = c.now.AddDate(0, 0, days) }

func newUseCase(t *testing.T, repo repository.StreakRepository) (*UseCase, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)}
	uc := New(repo, nil, nil)
	uc.Now = c.Now
	return uc, c
}

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func assertInvariant(t *testing.T, s *domain.Streak) {
	t.Helper()
	assert.GreaterOrEqual(t, s.LongestStreak, s.CurrentStreak)
	assert.GreaterOrEqual(t, s.CurrentStreak, 0)
}

func TestFirstCompletionCreatesStreak(t *testing.T) {
	uc, _ := newUseCase(t, memory.NewStreakRepository(memory.NewStore()))

	s, err := uc.UpdateOnCompletion(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	require.NotNil(t, s.LastCompletedDate)
	assert.Equal(t, "2024-03-10", s.LastCompletedDate.String())
	assertInvariant(t, s)
}

func TestSameDayCompletionIsNoop(t *testing.T) {
	repo := memory.NewStreakRepository(memory.NewStore())
	uc, c := newUseCase(t, repo)
	ctx := context.Background()

	first, err := uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)

	c.now = c.now.Add(14 * time.Hour) // 23:00 UTC, same day
	second, err := uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)

	stored, err := repo.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
	assert.Equal(t, first.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, "2024-03-10", stored.LastCompletedDate.String())
	assertInvariant(t, stored)
}

func TestConsecutiveDayIncrements(t *testing.T) {
	uc, c := newUseCase(t, memory.NewStreakRepository(memory.NewStore()))
	ctx := context.Background()

	for want := 1; want <= 4; want++ {
		s, err := uc.UpdateOnCompletion(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, s.CurrentStreak)
		assert.Equal(t, want, s.LongestStreak)
		assertInvariant(t, s)
		c.advance(1)
	}
}

func TestGapResetsCurrentKeepsLongest(t *testing.T) {
	uc, c := newUseCase(t, memory.NewStreakRepository(memory.NewStore()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := uc.UpdateOnCompletion(ctx, "u1")
		require.NoError(t, err)
		c.advance(1)
	}
	c.advance(1) // skip a day

	s, err := uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
	assertInvariant(t, s)
}

func TestDayBoundaryUsesUTC(t *testing.T) {
	uc, c := newUseCase(t, memory.NewStreakRepository(memory.NewStore()))
	ctx := context.Background()

	tz := time.FixedZone("UTC-5", -5*3600)
	// 21:00 local on the 10th is 02:00 UTC on the 11th.
	c.now = time.Date(2024, time.March, 10, 21, 0, 0, 0, tz)
	s, err := uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", s.LastCompletedDate.String())

	c.now = time.Date(2024, time.March, 11, 20, 0, 0, 0, tz) // 01:00 UTC on the 12th
	s, err = uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestAdvance(t *testing.T) {
	last := date(t, "2024-02-28")
	base := domain.Streak{CurrentStreak: 5, LongestStreak: 7, LastCompletedDate: &last}

	cases := []struct {
		name        string
		today       string
		wantCurrent int
		wantLongest int
		wantOutcome string
	}{
		{"same day", "2024-02-28", 5, 7, metrics.StreakUnchanged},
		{"leap day follows", "2024-02-29", 6, 7, metrics.StreakIncremented},
		{"two day gap", "2024-03-01", 1, 7, metrics.StreakReset},
		{"clock moved backward", "2024-02-20", 5, 7, metrics.StreakUnchanged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, outcome := Advance(base, date(t, tc.today))
			assert.Equal(t, tc.wantOutcome, outcome)
			assert.Equal(t, tc.wantCurrent, next.CurrentStreak)
			assert.Equal(t, tc.wantLongest, next.LongestStreak)
			assert.GreaterOrEqual(t, next.LongestStreak, next.CurrentStreak)
			if outcome != metrics.StreakUnchanged {
				assert.Equal(t, tc.today, next.LastCompletedDate.String())
			}
		})
	}
	assert.Equal(t, "2024-02-28", base.LastCompletedDate.String(), "input must not be mutated")
}

func TestAdvanceRaisesLongest(t *testing.T) {
	last := date(t, "2023-12-31")
	next, outcome := Advance(domain.Streak{CurrentStreak: 3, LongestStreak: 3, LastCompletedDate: &last}, date(t, "2024-01-01"))
	assert.Equal(t, metrics.StreakIncremented, outcome)
	assert.Equal(t, 4, next.CurrentStreak)
	assert.Equal(t, 4, next.LongestStreak)
}

func TestAdvanceWithoutDateResets(t *testing.T) {
	next, outcome := Advance(domain.Streak{CurrentStreak: 0, LongestStreak: 2}, date(t, "2024-01-01"))
	assert.Equal(t, metrics.StreakReset, outcome)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 2, next.LongestStreak)
}

// racingRepo lets another writer record the same day right before the first Update lands.
type racingRepo struct {
	repository.StreakRepository
	raced   bool
	updates int
}

func (r *racingRepo) Update(ctx context.Context, s *domain.Streak, expectedLast *domain.Date) error {
	r.updates++
	if !r.raced {
		r.raced = true
		winner := *s
		if err := r.StreakRepository.Update(ctx, &winner, expectedLast); err != nil {
			return err
		}
		return domain.ErrStreakConflict
	}
	return r.StreakRepository.Update(ctx, s, expectedLast)
}

func TestConcurrentSameDayCompletionIncrementsOnce(t *testing.T) {
	repo := &racingRepo{StreakRepository: memory.NewStreakRepository(memory.NewStore())}
	uc, c := newUseCase(t, repo)
	ctx := context.Background()

	_, err := uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)
	c.advance(1)

	s, err := uc.UpdateOnCompletion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 1, repo.updates, "re-evaluation sees the winner's date and skips the write")

	stored, err := repo.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentStreak)
}

type failingRepo struct {
	repository.StreakRepository
	err error
}

func (r failingRepo) GetByUser(context.Context, string) (*domain.Streak, error) {
	return nil, r.err
}

func TestPersistenceErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	uc, _ := newUseCase(t, failingRepo{err: boom})

	_, err := uc.UpdateOnCompletion(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
}

func TestGetReturnsDefaultWhenAbsent(t *testing.T) {
	uc, _ := newUseCase(t, memory.NewStreakRepository(memory.NewStore()))

	s, err := uc.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", s.UserID)
	assert.Zero(t, s.CurrentStreak)
	assert.Zero(t, s.LongestStreak)
	assert.Nil(t, s.LastCompletedDate)
}

func TestUpdateRequiresUser(t *testing.T) {
	uc, _ := newUseCase(t, memory.NewStreakRepository(memory.NewStore()))
	_, err := uc.UpdateOnCompletion(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
