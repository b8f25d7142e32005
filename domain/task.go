package domain

import "time"

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// Task represents a user-owned activity item, optionally linked to a goal.
type Task struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	DueDate      *Date        `json:"due_date,omitempty"`
	Priority     TaskPriority `json:"priority"`
	Status       TaskStatus   `json:"status"`
	GoalID       string       `json:"goal_id,omitempty"`
	ParentTaskID string       `json:"parent_task_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskCompleted
}

// TaskPatch carries the fields of a partial task update. Nil means unchanged;
// an empty GoalID or ParentTaskID clears the link.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      **Date
	Priority     *TaskPriority
	Status       *TaskStatus
	GoalID       *string
	ParentTaskID *string
}

// Apply copies the set fields of the patch onto t.
func (p TaskPatch) Apply(t *Task) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.GoalID != nil {
		t.GoalID = *p.GoalID
	}
	if p.ParentTaskID != nil {
		t.ParentTaskID = *p.ParentTaskID
	}
}
