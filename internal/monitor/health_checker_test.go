package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"jordanella.com/pk-hunter/internal/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChannel struct {
	mu         sync.Mutex
	restarts   int
	failFirst  int
	healthy    bool
	restartErr error
}

func (f *fakeChannel) Restart(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	if f.restarts <= f.failFirst {
		return errors.New("adb: cannot bind port")
	}
	return f.restartErr
}

func (f *fakeChannel) IsHealthy(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restarts
}

type publisherFunc func(events.Event)

func (p publisherFunc) Publish(e events.Event) { p(e) }

func TestRestartNowRefreshesOnSuccess(t *testing.T) {
	ch := &fakeChannel{healthy: true}
	refreshed := 0
	var published []events.Event

	cm := NewChannelMonitor(ch).
		WithSettleDelay(0).
		WithRestartedCallback(func(context.Context) error { refreshed++; return nil }).
		WithEvents(publisherFunc(func(e events.Event) { published = append(published, e) }))

	require.NoError(t, cm.RestartNow(context.Background()))
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 1, cm.Stats().Restarts)
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTypeChannelRestarted, published[0].Type)
	assert.Equal(t, true, published[0].Data["healthy"])
}

func TestRestartNowUnhealthySkipsRefresh(t *testing.T) {
	ch := &fakeChannel{healthy: false}
	refreshed := false
	cm := NewChannelMonitor(ch).
		WithSettleDelay(0).
		WithRestartedCallback(func(context.Context) error { refreshed = true; return nil })

	assert.ErrorIs(t, cm.RestartNow(context.Background()), ErrUnhealthy)
	assert.False(t, refreshed)
	assert.Equal(t, 1, cm.Stats().Failures)
}

func TestLoopRetriesAfterFailure(t *testing.T) {
	ch := &fakeChannel{healthy: true, failFirst: 2}
	var mu sync.Mutex
	refreshed := 0

	cm := NewChannelMonitor(ch).
		WithCheckInterval(20 * time.Millisecond).
		WithRetryDelay(5 * time.Millisecond).
		WithSettleDelay(0).
		WithRestartedCallback(func(context.Context) error {
			mu.Lock()
			refreshed++
			mu.Unlock()
			return errors.New("discovery failed")
		})

	cm.Start(context.Background())
	require.Eventually(t, func() bool { return cm.Stats().Restarts >= 2 }, 5*time.Second, 5*time.Millisecond)
	cm.Stop()

	stats := cm.Stats()
	assert.Equal(t, 2, stats.Failures)
	assert.GreaterOrEqual(t, ch.count(), 4)
	mu.Lock()
	assert.GreaterOrEqual(t, refreshed, 2)
	mu.Unlock()
}

func TestDisabledMonitorStopsCleanly(t *testing.T) {
	cm := NewChannelMonitor(&fakeChannel{}).WithCheckInterval(0)
	cm.Start(context.Background())
	cm.Stop()
	assert.Zero(t, cm.Stats().Restarts)
}
