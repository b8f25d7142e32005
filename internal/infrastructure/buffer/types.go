package buffer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/todomore/domain"
)

const (
	EntityTask = "task"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"

	defaultPriority = 3
	maxPriority     = 5
)

// Replay order for task operations. Lower values drain first, so a buffered
// create always lands before an update or delete of the same task.
var operationPriority = map[string]int{
	OperationCreate: 1,
	OperationUpdate: 2,
	OperationDelete: 3,
}

// Item is a task operation waiting for the primary store to come back.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

// NewTaskItem snapshots task for a later replay of operation.
func NewTaskItem(operation string, task *domain.Task) (Item, error) {
	if task == nil {
		return Item{}, domain.ErrInvalidPayload
	}
	priority, ok := operationPriority[operation]
	if !ok {
		return Item{}, fmt.Errorf("buffer: unsupported operation %q", operation)
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return Item{}, err
	}
	return Item{
		UserID:    task.UserID,
		Entity:    EntityTask,
		Operation: operation,
		Data:      payload,
		Priority:  priority,
	}, nil
}

// Task decodes the task snapshot carried by the item.
func (i Item) Task() (*domain.Task, error) {
	if i.Entity != EntityTask {
		return nil, fmt.Errorf("buffer: unsupported entity %q", i.Entity)
	}
	var task domain.Task
	if err := json.Unmarshal(i.Data, &task); err != nil {
		return nil, fmt.Errorf("buffer: decode task: %w", err)
	}
	return &task, nil
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > maxPriority {
		i.Priority = defaultPriority
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now().UTC()
	}
}
