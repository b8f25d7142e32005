package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/repository"
)

const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullDate(d *domain.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.Time()
}

func fromNullDate(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}

func fromNullString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > repository.MaxListLimit {
		return repository.MaxListLimit
	}
	return limit
}
