package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

type streakRepository struct {
	pool *pgxpool.Pool
}

// NewStreakRepository returns a Postgres-backed implementation of StreakRepository.
func NewStreakRepository(pool *pgxpool.Pool) repository.StreakRepository {
	return &streakRepository{pool: pool}
}

func (r *streakRepository) GetByUser(ctx context.Context, userID string) (*domain.Streak, error) {
	const query = `
	SELECT id, user_id, current_streak, longest_streak, last_completed_date, created_at, updated_at
	FROM streaks
	WHERE user_id = $1
	`
	var (
		streak domain.Streak
		last   *time.Time
	)
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&streak.ID,
		&streak.UserID,
		&streak.CurrentStreak,
		&streak.LongestStreak,
		&last,
		&streak.CreatedAt,
		&streak.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStreakNotFound
		}
		return nil, err
	}
	streak.LastCompletedDate = fromNullDate(last)
	return &streak, nil
}

func (r *streakRepository) Create(ctx context.Context, streak *domain.Streak) (*domain.Streak, error) {
	if streak == nil || streak.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if streak.ID == "" {
		streak.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_completed_date)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO NOTHING
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		streak.ID,
		streak.UserID,
		streak.CurrentStreak,
		streak.LongestStreak,
		nullDate(streak.LastCompletedDate),
	).Scan(&streak.CreatedAt, &streak.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return nil, domain.ErrStreakConflict
		}
		return nil, err
	}
	return streak, nil
}

func (r *streakRepository) Update(ctx context.Context, streak *domain.Streak, expectedLast *domain.Date) error {
	if streak == nil || streak.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE streaks
	SET current_streak = $2,
		longest_streak = $3,
		last_completed_date = $4,
		updated_at = $5
	WHERE user_id = $1
	  AND last_completed_date IS NOT DISTINCT FROM $6::date
	RETURNING id, created_at
	`

	if streak.UpdatedAt.IsZero() {
		streak.UpdatedAt = time.Now().UTC()
	}

	if err := r.pool.QueryRow(ctx, query,
		streak.UserID,
		streak.CurrentStreak,
		streak.LongestStreak,
		nullDate(streak.LastCompletedDate),
		streak.UpdatedAt,
		nullDate(expectedLast),
	).Scan(&streak.ID, &streak.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrStreakConflict
		}
		return err
	}
	return nil
}
