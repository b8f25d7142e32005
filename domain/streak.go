package domain

import "time"

// Streak counts consecutive UTC days on which the user completed at least one task.
type Streak struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	CurrentStreak     int       `json:"current_streak"`
	LongestStreak     int       `json:"longest_streak"`
	LastCompletedDate *Date     `json:"last_completed_date"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EmptyStreak is what a user without any completion sees.
func EmptyStreak(userID string, now time.Time) *Streak {
	return &Streak{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CompletedOn reports whether the last recorded completion fell on day.
func (s *Streak) CompletedOn(day Date) bool {
	return s != nil && s.LastCompletedDate != nil && s.LastCompletedDate.Equal(day)
}
