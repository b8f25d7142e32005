package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/metrics"
	appLogger "github.com/fastygo/todomore/pkg/logger"
	"github.com/fastygo/todomore/repository"
)

// UseCase maintains the per-user daily completion streak.
type UseCase struct {
	streaks repository.StreakRepository
	metrics *metrics.Metrics
	logger  *zap.Logger

	// Now is the clock used to derive "today"; only its UTC date matters.
	Now func() time.Time
}

func New(streaks repository.StreakRepository, m *metrics.Metrics, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		streaks: streaks,
		metrics: m,
		logger:  logger,
		Now:     time.Now,
	}
}

// Get returns the user's streak, or an empty one if the user never completed a task.
func (uc *UseCase) Get(ctx context.Context, userID string) (*domain.Streak, error) {
	streak, err := uc.streaks.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrStreakNotFound) {
		return domain.EmptyStreak(userID, uc.Now().UTC()), nil
	}
	return streak, err
}

// UpdateOnCompletion records that userID completed a task today (UTC).
// Completions on a day that is already recorded leave the streak untouched.
func (uc *UseCase) UpdateOnCompletion(ctx context.Context, userID string) (*domain.Streak, error) {
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}
	now := uc.Now().UTC()
	today := domain.Today(now)

	streak, outcome, err := uc.apply(ctx, userID, today, now)
	if errors.Is(err, domain.ErrStreakConflict) {
		// Another writer got in between the read and the write. Re-evaluate
		// against the fresh record; a same-day winner turns this into a no-op.
		streak, outcome, err = uc.apply(ctx, userID, today, now)
	}
	if err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}

	uc.metrics.StreakOutcome(outcome)
	appLogger.WithRequestID(ctx, uc.logger).Debug("streak evaluated",
		zap.String("user_id", userID),
		zap.String("outcome", outcome),
		zap.Int("current", streak.CurrentStreak),
		zap.Int("longest", streak.LongestStreak))
	return streak, nil
}

func (uc *UseCase) apply(ctx context.Context, userID string, today domain.Date, now time.Time) (*domain.Streak, string, error) {
	existing, err := uc.streaks.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrStreakNotFound) {
		return nil, "", err
	}

	if existing == nil {
		created, err := uc.streaks.Create(ctx, &domain.Streak{
			UserID:            userID,
			CurrentStreak:     1,
			LongestStreak:     1,
			LastCompletedDate: &today,
		})
		if err != nil {
			return nil, "", err
		}
		return created, metrics.StreakCreated, nil
	}

	next, outcome := Advance(*existing, today)
	if outcome == metrics.StreakUnchanged {
		return existing, outcome, nil
	}

	next.UpdatedAt = now
	if err := uc.streaks.Update(ctx, &next, existing.LastCompletedDate); err != nil {
		return nil, "", err
	}
	return &next, outcome, nil
}

// Advance computes the streak after a completion on today. It does not touch storage.
func Advance(s domain.Streak, today domain.Date) (domain.Streak, string) {
	// lastCompletedDate never moves backward, even if the clock does.
	if s.CompletedOn(today) || (s.LastCompletedDate != nil && today.Before(*s.LastCompletedDate)) {
		return s, metrics.StreakUnchanged
	}

	outcome := metrics.StreakReset
	if s.LastCompletedDate != nil && s.LastCompletedDate.Equal(today.AddDays(-1)) {
		s.CurrentStreak++
		outcome = metrics.StreakIncremented
	} else {
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	last := today
	s.LastCompletedDate = &last
	return s, outcome
}
