package transport

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/fastygo/todomore/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
		return domain.TaskPriority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return domain.TaskStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("goal_status", func(fl validator.FieldLevel) bool {
		return domain.GoalStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// An empty due date is accepted so that updates can clear it.
	_ = v.RegisterValidation("due_date", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if value == "" {
			return true
		}
		_, err := ParseDueDate(value)
		return err == nil
	})
	return v
}

// Validate checks a request against its struct tags and reports the first
// offending field as an INVALID domain error.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.Invalid(fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
}

// ParseDueDate accepts YYYY-MM-DD or an RFC3339 timestamp, the latter reduced to its UTC date.
func ParseDueDate(value string) (domain.Date, error) {
	value = strings.TrimSpace(value)
	if d, err := domain.ParseDate(value); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return domain.Date{}, fmt.Errorf("due date %q: expected YYYY-MM-DD or RFC3339", value)
	}
	return domain.Today(t), nil
}

type TaskCreateRequest struct {
	Title        string `json:"title" validate:"required,notblank,max=200"`
	Description  string `json:"description" validate:"max=4000"`
	DueDate      string `json:"due_date" validate:"omitempty,due_date"`
	Priority     string `json:"priority" validate:"omitempty,task_priority"`
	Status       string `json:"status" validate:"omitempty,task_status"`
	GoalID       string `json:"goal_id" validate:"max=64"`
	ParentTaskID string `json:"parent_task_id" validate:"max=64"`
}

// ToTask builds the domain task owned by userID. The request must be validated first.
func (r TaskCreateRequest) ToTask(userID string) *domain.Task {
	task := &domain.Task{
		UserID:       userID,
		Title:        strings.TrimSpace(r.Title),
		Description:  r.Description,
		Priority:     domain.TaskPriority(r.Priority),
		Status:       domain.TaskStatus(r.Status),
		GoalID:       r.GoalID,
		ParentTaskID: r.ParentTaskID,
	}
	if r.DueDate != "" {
		if due, err := ParseDueDate(r.DueDate); err == nil {
			task.DueDate = &due
		}
	}
	return task
}

// TaskUpdateRequest is a partial update: absent fields stay unchanged, an
// empty due_date, goal_id or parent_task_id clears the value.
type TaskUpdateRequest struct {
	Title        *string `json:"title" validate:"omitnil,notblank,max=200"`
	Description  *string `json:"description" validate:"omitnil,max=4000"`
	DueDate      *string `json:"due_date" validate:"omitnil,due_date"`
	Priority     *string `json:"priority" validate:"omitnil,task_priority"`
	Status       *string `json:"status" validate:"omitnil,task_status"`
	GoalID       *string `json:"goal_id" validate:"omitnil,max=64"`
	ParentTaskID *string `json:"parent_task_id" validate:"omitnil,max=64"`
}

func (r TaskUpdateRequest) ToPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Description:  r.Description,
		GoalID:       r.GoalID,
		ParentTaskID: r.ParentTaskID,
	}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		patch.Title = &title
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		patch.Priority = &p
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		patch.Status = &s
	}
	if r.DueDate != nil {
		var due *domain.Date
		if strings.TrimSpace(*r.DueDate) != "" {
			if parsed, err := ParseDueDate(*r.DueDate); err == nil {
				due = &parsed
			}
		}
		patch.DueDate = &due
	}
	return patch
}

type SmartRequest struct {
	Specific   string `json:"specific" validate:"max=2000"`
	Measurable string `json:"measurable" validate:"max=2000"`
	Achievable string `json:"achievable" validate:"max=2000"`
	Relevant   string `json:"relevant" validate:"max=2000"`
	TimeBound  string `json:"time_bound" validate:"max=2000"`
}

func (s SmartRequest) toDomain() domain.Smart {
	return domain.Smart{
		Specific:   s.Specific,
		Measurable: s.Measurable,
		Achievable: s.Achievable,
		Relevant:   s.Relevant,
		TimeBound:  s.TimeBound,
	}
}

type GoalCreateRequest struct {
	Title        string       `json:"title" validate:"required,notblank,max=200"`
	Description  string       `json:"description" validate:"max=4000"`
	Status       string       `json:"status" validate:"omitempty,goal_status"`
	Smart        SmartRequest `json:"smart"`
	ParentGoalID string       `json:"parent_goal_id" validate:"max=64"`
}

func (r GoalCreateRequest) ToGoal(userID string) *domain.Goal {
	return &domain.Goal{
		UserID:       userID,
		Title:        strings.TrimSpace(r.Title),
		Description:  r.Description,
		Status:       domain.GoalStatus(r.Status),
		Smart:        r.Smart.toDomain(),
		ParentGoalID: r.ParentGoalID,
	}
}

type GoalUpdateRequest struct {
	Title       *string       `json:"title" validate:"omitnil,notblank,max=200"`
	Description *string       `json:"description" validate:"omitnil,max=4000"`
	Status      *string       `json:"status" validate:"omitnil,goal_status"`
	Smart       *SmartRequest `json:"smart" validate:"omitnil"`
}

func (r GoalUpdateRequest) ToPatch() domain.GoalPatch {
	patch := domain.GoalPatch{Description: r.Description}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		patch.Title = &title
	}
	if r.Status != nil {
		s := domain.GoalStatus(*r.Status)
		patch.Status = &s
	}
	if r.Smart != nil {
		smart := r.Smart.toDomain()
		patch.Smart = &smart
	}
	return patch
}
