package janitor

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsRegisteredTask(t *testing.T) {
	j := New()
	var runs atomic.Int64
	require.NoError(t, j.Every("@every 10ms", "counter", func() error {
		runs.Add(1)
		return nil
	}))

	j.Start()
	defer j.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)
}

func TestFailingTaskStaysScheduled(t *testing.T) {
	j := New()
	var runs atomic.Int64
	require.NoError(t, j.Every("@every 10ms", "flaky", func() error {
		runs.Add(1)
		return fmt.Errorf("boom")
	}))

	j.Start()
	defer j.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)
}

func TestPanickingTaskIsContained(t *testing.T) {
	j := New()
	var runs atomic.Int64
	require.NoError(t, j.Every("@every 10ms", "panicky", func() error {
		runs.Add(1)
		panic("boom")
	}))

	j.Start()
	defer j.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)
}

func TestRegistrationValidation(t *testing.T) {
	j := New()
	assert.Error(t, j.Every("", "empty", func() error { return nil }))
	assert.Error(t, j.Every("@every 1s", "nil-task", nil))
	assert.Error(t, j.Every("not a cron expr", "bad", func() error { return nil }))
}
