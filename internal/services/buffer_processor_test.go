package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/infrastructure/buffer"
	"github.com/fastygo/todomore/repository"
	"github.com/fastygo/todomore/repository/memory"
	"github.com/fastygo/todomore/usecase"
	goalUC "github.com/fastygo/todomore/usecase/goal"
)

type switchableHealth struct{ online bool }

func (h *switchableHealth) IsOnline() bool { return h.online }

func openBuffer(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "task_operations")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOfflineOperationIsReplayedWithProgress(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	tasks := memory.NewTaskRepository(mem)
	goals := goalUC.New(memory.NewGoalRepository(mem), tasks, nil, nil, nil)
	goal, err := goals.CreateGoal(ctx, &domain.Goal{UserID: "u1", Title: "read"})
	require.NoError(t, err)

	health := &switchableHealth{}
	bp := NewBufferProcessor(openBuffer(t), health, tasks, goals, nil, ProcessorConfig{})
	bridge := NewBufferBridge(bp)

	task := &domain.Task{ID: "t1", UserID: "u1", Title: "chapter 1", Status: domain.TaskCompleted, Priority: domain.PriorityLow, GoalID: goal.ID}
	require.NoError(t, bridge.BufferTask(ctx, usecase.OperationCreate, task))
	assert.Equal(t, 1, bp.Size())

	_, err = tasks.GetByID(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	// Draining while offline is a no-op.
	require.NoError(t, bp.Drain(ctx))
	assert.Equal(t, 1, bp.Size())

	health.online = true
	require.NoError(t, bp.Drain(ctx))
	assert.Equal(t, 0, bp.Size())

	stored, err := tasks.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, stored.Status)

	refreshed, err := goals.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, refreshed.Progress)
}

func TestOnlineOperationRunsImmediately(t *testing.T) {
	ctx := context.Background()
	tasks := memory.NewTaskRepository(memory.NewStore())
	bp := NewBufferProcessor(openBuffer(t), &switchableHealth{online: true}, tasks, nil, nil, ProcessorConfig{})

	require.NoError(t, NewBufferBridge(bp).BufferTask(ctx, usecase.OperationCreate, &domain.Task{ID: "t1", UserID: "u1", Title: "x"}))
	assert.Equal(t, 0, bp.Size())

	_, err := tasks.GetByID(ctx, "t1")
	assert.NoError(t, err)
}

type brokenTasks struct {
	repository.TaskRepository
}

func (brokenTasks) Update(context.Context, *domain.Task) error {
	return errors.New("still down")
}

func TestItemDroppedAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	health := &switchableHealth{}
	bp := NewBufferProcessor(openBuffer(t), health, brokenTasks{}, nil, nil, ProcessorConfig{MaxRetries: 2})

	require.NoError(t, NewBufferBridge(bp).BufferTask(ctx, usecase.OperationUpdate, &domain.Task{ID: "t1", UserID: "u1"}))
	health.online = true

	require.NoError(t, bp.Drain(ctx))
	assert.Equal(t, 1, bp.Size(), "first failure is retried")

	require.NoError(t, bp.Drain(ctx))
	assert.Equal(t, 0, bp.Size(), "second failure exhausts the retries")
}

func TestReplayedDeleteOfMissingTaskSucceeds(t *testing.T) {
	ctx := context.Background()
	health := &switchableHealth{}
	bp := NewBufferProcessor(openBuffer(t), health, memory.NewTaskRepository(memory.NewStore()), nil, nil, ProcessorConfig{})

	require.NoError(t, NewBufferBridge(bp).BufferTask(ctx, usecase.OperationDelete, &domain.Task{ID: "gone", UserID: "u1"}))
	health.online = true
	require.NoError(t, bp.Drain(ctx))
	assert.Equal(t, 0, bp.Size())
}

func TestBridgeRejectsNilTask(t *testing.T) {
	bp := NewBufferProcessor(openBuffer(t), nil, nil, nil, nil, ProcessorConfig{})
	assert.ErrorIs(t, NewBufferBridge(bp).BufferTask(context.Background(), usecase.OperationCreate, nil), domain.ErrInvalidPayload)
}
