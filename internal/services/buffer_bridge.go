package services

import (
	"context"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/infrastructure/buffer"
	"github.com/fastygo/todomore/usecase"
)

// BufferBridge adapts the processor to the use case OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	// Item IDs are per operation so that a create and a later update of the
	// same task are both kept and replayed in order.
	item, err := buffer.NewTaskItem(operation, task)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
