package provider

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalesces(t *testing.T) {
	mock := clock.NewMock()
	var runs atomic.Int64
	d := NewDebouncer(mock, time.Second, func() { runs.Add(1) })

	d.Schedule()
	d.Schedule()
	d.Schedule()

	require.Zero(t, runs.Load(), "nothing runs inside the window")

	mock.Add(time.Second)
	require.Equal(t, int64(1), runs.Load(), "burst of schedules collapses into one run")

	mock.Add(10 * time.Second)
	require.Equal(t, int64(1), runs.Load(), "no re-run without a new schedule")
}

func TestDebouncerReschedulePushesDeadline(t *testing.T) {
	mock := clock.NewMock()
	var runs atomic.Int64
	d := NewDebouncer(mock, time.Second, func() { runs.Add(1) })

	d.Schedule()
	mock.Add(900 * time.Millisecond)
	d.Schedule() // re-arm before the deadline
	mock.Add(900 * time.Millisecond)
	require.Zero(t, runs.Load())

	mock.Add(100 * time.Millisecond)
	require.Equal(t, int64(1), runs.Load())
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	mock := clock.NewMock()
	var runs atomic.Int64
	d := NewDebouncer(mock, time.Second, func() { runs.Add(1) })

	d.Schedule()
	d.Flush()
	require.Equal(t, int64(1), runs.Load())

	mock.Add(time.Second)
	require.Equal(t, int64(1), runs.Load(), "flush cancels the pending timer")
}

func TestDebouncerFlushWithoutPending(t *testing.T) {
	mock := clock.NewMock()
	var runs atomic.Int64
	d := NewDebouncer(mock, time.Second, func() { runs.Add(1) })

	d.Flush()
	require.Equal(t, int64(1), runs.Load(), "flush runs the task even with nothing scheduled")
}

func TestDebouncerStop(t *testing.T) {
	mock := clock.NewMock()
	var runs atomic.Int64
	d := NewDebouncer(mock, time.Second, func() { runs.Add(1) })

	d.Schedule()
	d.Stop()

	mock.Add(time.Second)
	require.Zero(t, runs.Load())

	d.Schedule() // ignored after stop
	mock.Add(time.Second)
	require.Zero(t, runs.Load())

	d.Flush() // flush after stop is a no-op too
	require.Zero(t, runs.Load())
}
