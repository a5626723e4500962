package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_TicksImmediatelyThenOnInterval(t *testing.T) {
	var ticks int64
	s := NewScheduler("dashboard", 20*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt64(&ticks, 1)
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(110 * time.Millisecond)
	s.Stop()

	require.NoError(t, <-done)
	got := atomic.LoadInt64(&ticks)
	assert.GreaterOrEqual(t, got, int64(3), "immediate tick plus interval ticks")
}

func TestRun_ContextCancellationStopsLoop(t *testing.T) {
	s := NewScheduler("scans", 10*time.Millisecond, func(ctx context.Context) error {
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_TickErrorsDoNotStopTheLoop(t *testing.T) {
	var ticks int64
	s := NewScheduler("dashboard", 15*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt64(&ticks, 1)
		return fmt.Errorf("backend unreachable")
	}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(80 * time.Millisecond)
	s.Stop()
	require.NoError(t, <-done)

	assert.GreaterOrEqual(t, atomic.LoadInt64(&ticks), int64(3), "loop keeps cadence through failures")
}

func TestRun_SecondRunWhileActiveFails(t *testing.T) {
	s := NewScheduler("dashboard", time.Hour, func(ctx context.Context) error { return nil }, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	s.Stop()
	require.NoError(t, <-done)
}

func TestStop_Idempotent(t *testing.T) {
	s := NewScheduler("scans", time.Hour, func(ctx context.Context) error { return nil }, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	s.Stop()
	s.Stop()
	require.NoError(t, <-done)
}
