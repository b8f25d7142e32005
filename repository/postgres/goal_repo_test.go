package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todomore/domain"
)

// goalRow feeds scanGoal one goals row in goalColumns order.
type goalRow struct {
	smart []byte
}

func (r goalRow) Scan(dest ...interface{}) error {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	*dest[0].(*string) = "g1"
	*dest[1].(*string) = "u1"
	*dest[2].(*string) = "Run a marathon"
	*dest[3].(*string) = ""
	*dest[4].(*[]byte) = r.smart
	*dest[5].(*string) = string(domain.GoalInProgress)
	*dest[6].(*int) = 40
	*dest[7].(**string) = nil
	*dest[8].(*time.Time) = now
	*dest[9].(*time.Time) = now
	return nil
}

func TestScanGoalDecodesSmartBlock(t *testing.T) {
	goal, err := scanGoal(goalRow{smart: []byte(`{"measurable":"42km","time_bound":"October"}`)})
	require.NoError(t, err)
	assert.Equal(t, "42km", goal.Smart.Measurable)
	assert.Equal(t, "October", goal.Smart.TimeBound)
	assert.Equal(t, 40, goal.Progress)
	assert.Empty(t, goal.ParentGoalID)
}

func TestScanGoalReportsCorruptSmartBlock(t *testing.T) {
	_, err := scanGoal(goalRow{smart: []byte(`{"measurable":`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "g1")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, clampLimit(0))
	assert.Equal(t, 100, clampLimit(150))
	assert.Equal(t, 25, clampLimit(25))
}
