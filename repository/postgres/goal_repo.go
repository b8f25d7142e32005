package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

const goalColumns = `id, user_id, title, description, smart, status, progress, parent_goal_id, created_at, updated_at`

type goalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository returns a Postgres-backed implementation of GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) repository.GoalRepository {
	return &goalRepository{pool: pool}
}

func (r *goalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	return scanGoal(r.pool.QueryRow(ctx, query, id))
}

func (r *goalRepository) List(ctx context.Context, filter repository.GoalFilter) ([]domain.Goal, error) {
	query := `
	SELECT ` + goalColumns + `
	FROM goals
	WHERE ($1 = '' OR user_id = $1)
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

func (r *goalRepository) Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	if goal == nil {
		return nil, domain.ErrInvalidPayload
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	smart, err := json.Marshal(goal.Smart)
	if err != nil {
		return nil, err
	}

	const query = `
	INSERT INTO goals (id, user_id, title, description, smart, status, progress, parent_goal_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		smart,
		string(goal.Status),
		goal.Progress,
		nullString(goal.ParentGoalID),
	).Scan(&goal.CreatedAt, &goal.UpdatedAt); err != nil {
		return nil, err
	}
	return goal, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	if goal == nil {
		return domain.ErrInvalidPayload
	}

	smart, err := json.Marshal(goal.Smart)
	if err != nil {
		return err
	}

	const query = `
	UPDATE goals
	SET title = $2,
		description = $3,
		smart = $4,
		status = $5,
		parent_goal_id = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING progress, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		goal.ID,
		goal.Title,
		goal.Description,
		smart,
		string(goal.Status),
		nullString(goal.ParentGoalID),
	).Scan(&goal.Progress, &goal.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrGoalNotFound
		}
		return err
	}
	return nil
}

func (r *goalRepository) UpdateProgress(ctx context.Context, id string, progress int) (*domain.Goal, error) {
	query := `
	UPDATE goals
	SET progress = $2,
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + goalColumns
	return scanGoal(r.pool.QueryRow(ctx, query, id, progress))
}

func (r *goalRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM goals WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var goal domain.Goal
	var (
		smart        []byte
		status       string
		parentGoalID *string
	)

	if err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&smart,
		&status,
		&goal.Progress,
		&parentGoalID,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}

	goal.Status = domain.GoalStatus(status)
	goal.ParentGoalID = fromNullString(parentGoalID)
	if len(smart) > 0 {
		if err := json.Unmarshal(smart, &goal.Smart); err != nil {
			return nil, fmt.Errorf("decode smart block of goal %s: %w", goal.ID, err)
		}
	}
	return &goal, nil
}
