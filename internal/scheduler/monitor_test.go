package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/scheduler"
)

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := scheduler.New("every now and then", zerolog.Nop())
	assert.Error(t, err)

	_, err = scheduler.New("@every 30s", zerolog.Nop())
	assert.NoError(t, err)
}

func TestMonitor_RunOnce(t *testing.T) {
	m, err := scheduler.New("@every 1h", zerolog.Nop())
	require.NoError(t, err)

	var redisDown atomic.Bool
	redisDown.Store(true)
	m.Add("postgres", func(context.Context) error { return nil })
	m.Add("redis", func(context.Context) error {
		if redisDown.Load() {
			return errors.New("connection refused")
		}
		return nil
	})

	var mu sync.Mutex
	var changes []bool
	m.OnChange(func(healthy bool) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, healthy)
	})

	assert.False(t, m.Healthy(), "unknown before the first check")

	m.RunOnce(context.Background())
	assert.False(t, m.Healthy())
	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "postgres", snap[0].Name)
	assert.True(t, snap[0].Healthy)
	assert.Equal(t, "redis", snap[1].Name)
	assert.Equal(t, "connection refused", snap[1].Error)

	m.RunOnce(context.Background())
	redisDown.Store(false)
	m.RunOnce(context.Background())
	assert.True(t, m.Healthy())
	assert.Empty(t, m.Snapshot()[1].Error)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true}, changes, "callback fires on the first check and on flips only")
}

func TestMonitor_NoProbesIsHealthy(t *testing.T) {
	m, err := scheduler.New("@every 1h", zerolog.Nop())
	require.NoError(t, err)
	m.RunOnce(context.Background())
	assert.True(t, m.Healthy())
	assert.Empty(t, m.Snapshot())
}

func TestMonitor_ProbeTimeout(t *testing.T) {
	m, err := scheduler.New("@every 1h", zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m.RunOnce(ctx)
	assert.False(t, m.Healthy())
}

func TestMonitor_StartRunsImmediately(t *testing.T) {
	m, err := scheduler.New("@every 1h", zerolog.Nop())
	require.NoError(t, err)

	var calls atomic.Int32
	m.Add("postgres", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	require.Eventually(t, m.Healthy, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}
