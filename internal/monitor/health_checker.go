package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/events"
)

// ErrUnhealthy is returned when the channel does not answer after a restart
var ErrUnhealthy = errors.New("control channel unhealthy after restart")

// ChannelController is the restartable side of the device control channel
type ChannelController interface {
	Restart(ctx context.Context) error
	IsHealthy(ctx context.Context) bool
}

// RestartedCallback runs after a successful restart, typically a device
// discovery refresh
type RestartedCallback func(ctx context.Context) error

// Stats counts restart attempts
type Stats struct {
	Restarts    int
	Failures    int
	LastRestart time.Time
	LastError   error
}

// ChannelMonitor periodically force-restarts the control channel server.
// Failures are logged and retried after a shorter delay; they never stop the loop.
type ChannelMonitor struct {
	channel     ChannelController
	interval    time.Duration
	retryDelay  time.Duration
	settleDelay time.Duration
	onRestarted RestartedCallback
	logger      *zap.Logger
	events      events.Publisher

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// NewChannelMonitor creates a monitor with a 20 minute interval
func NewChannelMonitor(channel ChannelController) *ChannelMonitor {
	return &ChannelMonitor{
		channel:     channel,
		interval:    20 * time.Minute,
		retryDelay:  time.Minute,
		settleDelay: 500 * time.Millisecond,
		logger:      zap.NewNop(),
	}
}

// WithCheckInterval sets the time between scheduled restarts
func (cm *ChannelMonitor) WithCheckInterval(interval time.Duration) *ChannelMonitor {
	cm.interval = interval
	return cm
}

// WithRetryDelay sets the wait before retrying a failed restart
func (cm *ChannelMonitor) WithRetryDelay(d time.Duration) *ChannelMonitor {
	cm.retryDelay = d
	return cm
}

// WithSettleDelay sets the wait between restart and health check
func (cm *ChannelMonitor) WithSettleDelay(d time.Duration) *ChannelMonitor {
	cm.settleDelay = d
	return cm
}

// WithRestartedCallback sets the callback run after each healthy restart
func (cm *ChannelMonitor) WithRestartedCallback(callback RestartedCallback) *ChannelMonitor {
	cm.onRestarted = callback
	return cm
}

// WithLogger sets the logger
func (cm *ChannelMonitor) WithLogger(logger *zap.Logger) *ChannelMonitor {
	if logger != nil {
		cm.logger = logger.Named("monitor")
	}
	return cm
}

// WithEvents publishes one event per restart attempt
func (cm *ChannelMonitor) WithEvents(publisher events.Publisher) *ChannelMonitor {
	cm.events = publisher
	return cm
}

// Start begins the restart loop. A non-positive interval disables it.
func (cm *ChannelMonitor) Start(ctx context.Context) {
	if cm.interval <= 0 {
		return
	}
	ctx, cm.cancel = context.WithCancel(ctx)
	cm.wg.Add(1)
	go cm.run(ctx)
}

// Stop ends the loop and waits for an in-flight restart to finish
func (cm *ChannelMonitor) Stop() {
	if cm.cancel != nil {
		cm.cancel()
	}
	cm.wg.Wait()
}

// Stats returns restart counters
func (cm *ChannelMonitor) Stats() Stats {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.stats
}

func (cm *ChannelMonitor) run(ctx context.Context) {
	defer cm.wg.Done()

	wait := cm.interval
	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := cm.RestartNow(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			cm.logger.Warn("control channel restart failed, will retry",
				zap.Duration("retry_in", cm.retryDelay), zap.Error(err))
			wait = cm.retryDelay
			continue
		}
		wait = cm.interval
	}
}

// RestartNow restarts the channel, checks its health and runs the restarted callback
func (cm *ChannelMonitor) RestartNow(ctx context.Context) error {
	err := cm.restart(ctx)

	cm.mu.Lock()
	cm.stats.LastRestart = time.Now()
	cm.stats.LastError = err
	if err != nil {
		cm.stats.Failures++
	} else {
		cm.stats.Restarts++
	}
	cm.mu.Unlock()

	if cm.events != nil {
		cm.events.Publish(events.NewChannelRestartedEvent(err == nil, err))
	}
	return err
}

func (cm *ChannelMonitor) restart(ctx context.Context) error {
	cm.logger.Info("restarting control channel server")
	if err := cm.channel.Restart(ctx); err != nil {
		return fmt.Errorf("failed to restart control channel: %w", err)
	}

	timer := time.NewTimer(cm.settleDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	if !cm.channel.IsHealthy(ctx) {
		return ErrUnhealthy
	}

	if cm.onRestarted != nil {
		if err := cm.onRestarted(ctx); err != nil {
			cm.logger.Warn("post-restart refresh failed", zap.Error(err))
		}
	}
	cm.logger.Info("control channel restarted")
	return nil
}
