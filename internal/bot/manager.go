package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/combat"
	"jordanella.com/pk-hunter/internal/emulator"
	"jordanella.com/pk-hunter/internal/events"
	"jordanella.com/pk-hunter/internal/monitor"
)

// Runner is one device's automation loop. Run returns once ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// AgentFactory builds the runner for a device
type AgentFactory interface {
	NewRunner(device emulator.Device, sessionID string, gate combat.Gate) (Runner, error)
}

// AgentFactoryFunc adapts a function to AgentFactory
type AgentFactoryFunc func(device emulator.Device, sessionID string, gate combat.Gate) (Runner, error)

// NewRunner calls f
func (f AgentFactoryFunc) NewRunner(device emulator.Device, sessionID string, gate combat.Gate) (Runner, error) {
	return f(device, sessionID, gate)
}

// handle is the scheduler's record of one running agent
type handle struct {
	device    emulator.Device
	sessionID string
	runner    Runner
	started   time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func (h *handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// AgentInfo describes a running agent
type AgentInfo struct {
	Serial    string
	Mode      emulator.Mode
	SessionID string
	Started   time.Time
	Combat    *combat.Snapshot // nil for runners without combat state
}

// Manager owns one agent per device serial and the gate they share
type Manager struct {
	mu      sync.Mutex
	agents  map[string]*handle
	gate    *Gate
	factory AgentFactory
	events  events.Publisher
	monitor *monitor.ChannelMonitor
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewManager creates a scheduler. A nil gate uses DefaultGateCapacity.
func NewManager(factory AgentFactory, gate *Gate, logger *zap.Logger) *Manager {
	if gate == nil {
		gate = NewGate(DefaultGateCapacity)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		agents:  make(map[string]*handle),
		gate:    gate,
		factory: factory,
		logger:  logger.Named("scheduler"),
	}
}

// WithEvents publishes agent start and stop events
func (m *Manager) WithEvents(publisher events.Publisher) *Manager {
	m.events = publisher
	return m
}

// WithMonitor attaches the control channel restart loop run by Run
func (m *Manager) WithMonitor(cm *monitor.ChannelMonitor) *Manager {
	m.monitor = cm
	return m
}

// Gate returns the shared gate
func (m *Manager) Gate() *Gate {
	return m.gate
}

// Start launches automation for a device. Starting a running device is a
// no-op and reports false.
func (m *Manager) Start(ctx context.Context, device emulator.Device) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.agents[device.Serial]; ok && !h.finished() {
		return false, nil
	}

	sessionID := uuid.NewString()
	runner, err := m.factory.NewRunner(device, sessionID, m.gate)
	if err != nil {
		return false, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &handle{
		device:    device,
		sessionID: sessionID,
		runner:    runner,
		started:   time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	m.agents[device.Serial] = h

	m.publish(events.NewAgentStartedEvent(device.Serial, sessionID, string(device.Mode)))
	m.logger.Info("agent started",
		zap.String("device", device.Serial),
		zap.String("mode", string(device.Mode)),
		zap.String("session", sessionID))

	m.wg.Add(1)
	go m.run(runCtx, h)
	return true, nil
}

func (m *Manager) run(ctx context.Context, h *handle) {
	defer m.wg.Done()
	defer close(h.done)

	reason := "cancelled"
	if err := m.safeRun(ctx, h.runner); err != nil {
		reason = err.Error()
		m.logger.Error("agent exited", zap.String("device", h.device.Serial), zap.Error(err))
	}
	m.publish(events.NewAgentStoppedEvent(h.device.Serial, h.sessionID, reason))
	m.logger.Info("agent stopped", zap.String("device", h.device.Serial), zap.String("reason", reason))
}

func (m *Manager) safeRun(ctx context.Context, r Runner) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("agent panic: %v", p)
		}
	}()
	return r.Run(ctx)
}

// Stop cancels a device's agent, waits for its loop to exit and removes it.
// Stopping a device that is not running is a no-op and reports false.
func (m *Manager) Stop(serial string) bool {
	m.mu.Lock()
	h, ok := m.agents[serial]
	if ok {
		delete(m.agents, serial)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	h.cancel()
	<-h.done
	return true
}

// StopAll stops every agent
func (m *Manager) StopAll() {
	for _, serial := range m.Running() {
		m.Stop(serial)
	}
}

// IsRunning reports whether a device has a live agent
func (m *Manager) IsRunning(serial string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.agents[serial]
	return ok && !h.finished()
}

// Running lists serials with an agent entry, sorted
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	serials := make([]string, 0, len(m.agents))
	for serial := range m.agents {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	return serials
}

// Agents describes every agent entry, sorted by serial
func (m *Manager) Agents() []AgentInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]AgentInfo, 0, len(m.agents))
	for serial, h := range m.agents {
		info := AgentInfo{
			Serial:    serial,
			Mode:      h.device.Mode,
			SessionID: h.sessionID,
			Started:   h.started,
		}
		if a, ok := h.runner.(interface{ State() combat.Snapshot }); ok {
			snap := a.State()
			info.Combat = &snap
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Serial < infos[j].Serial })
	return infos
}

// Wait blocks until every agent goroutine has returned
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Run starts the restart loop, blocks until ctx ends, then stops every agent
func (m *Manager) Run(ctx context.Context) error {
	if m.monitor != nil {
		m.monitor.Start(ctx)
		defer m.monitor.Stop()
	}
	<-ctx.Done()
	m.StopAll()
	m.Wait()
	return nil
}

func (m *Manager) publish(e events.Event) {
	if m.events != nil {
		m.events.Publish(e)
	}
}
