package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(0, nil)
	var order []string
	for _, name := range []string{"postgres", "buffer", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "buffer", "postgres"}, order)
}

func TestShutdownJoinsErrorsAndRunsOnce(t *testing.T) {
	m := New(0, nil)
	errA, errB := errors.New("a"), errors.New("b")
	calls := 0
	m.Register("a", func(context.Context) error { calls++; return errA })
	m.Register("b", func(context.Context) error { calls++; return errB })
	m.Register("nil", nil)

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 2, calls)

	m.Register("late", func(context.Context) error { calls++; return nil })
	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 2, calls)
}
