package domain

import "time"

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "Not Started"
	GoalInProgress GoalStatus = "In Progress"
	GoalAchieved   GoalStatus = "Achieved"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalAchieved:
		return true
	}
	return false
}

// Smart holds the five free-text SMART fields of a goal.
type Smart struct {
	Specific   string `json:"specific"`
	Measurable string `json:"measurable"`
	Achievable string `json:"achievable"`
	Relevant   string `json:"relevant"`
	TimeBound  string `json:"time_bound"`
}

func (s Smart) IsZero() bool {
	return s == Smart{}
}

// Goal is a user objective. Progress is the rounded percentage of linked
// tasks in Completed status and is only ever recomputed, never edited.
type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Smart        Smart      `json:"smart"`
	Status       GoalStatus `json:"status"`
	Progress     int        `json:"progress"`
	ParentGoalID string     `json:"parent_goal_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type GoalPatch struct {
	Title       *string
	Description *string
	Status      *GoalStatus
	Smart       *Smart
}

func (p GoalPatch) Apply(g *Goal) {
	if g == nil {
		return
	}
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.Smart != nil {
		g.Smart = *p.Smart
	}
}
