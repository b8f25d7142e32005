package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StreakOutcome(StreakCreated)
		m.ProgressRecomputed(nil)
		m.OperationBuffered("create")
		m.ObserveRequest("GET", "/health", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New("todomore")

	m.StreakOutcome(StreakIncremented)
	m.StreakOutcome(StreakIncremented)
	m.StreakOutcome(StreakUnchanged)
	m.ProgressRecomputed(nil)
	m.ProgressRecomputed(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.streakUpdates.WithLabelValues(StreakIncremented)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streakUpdates.WithLabelValues(StreakUnchanged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.progressRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.progressRuns.WithLabelValues("error")))
}
