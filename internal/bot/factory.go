package bot

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/combat"
	"jordanella.com/pk-hunter/internal/emulator"
	"jordanella.com/pk-hunter/internal/events"
	"jordanella.com/pk-hunter/internal/logging"
)

// ErrUnknownMode is returned for a device mode no runner exists for
var ErrUnknownMode = errors.New("unknown agent mode")

// ModeFactory builds the runner matching a device's selected mode
type ModeFactory struct {
	Channel   combat.Channel
	Templates combat.TemplateSource
	Logger    *zap.Logger
	Events    events.Publisher

	PK     combat.Config
	Hybrid combat.Config
	Auto   combat.AutoConfig
}

// NewModeFactory creates a factory with the stock presets
func NewModeFactory(channel combat.Channel, templates combat.TemplateSource, logger *zap.Logger) *ModeFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModeFactory{
		Channel:   channel,
		Templates: templates,
		Logger:    logger,
		PK:        combat.DefaultConfig(),
		Hybrid:    combat.HybridConfig(false),
		Auto:      combat.DefaultAutoConfig(),
	}
}

// NewRunner implements AgentFactory
func (f *ModeFactory) NewRunner(device emulator.Device, sessionID string, gate combat.Gate) (Runner, error) {
	deps := combat.Dependencies{
		Channel:   f.Channel,
		Templates: f.Templates,
		Gate:      gate,
		Log:       logging.DeviceSink(f.Logger, device.Serial),
		Events:    f.Events,
		SessionID: sessionID,
	}

	switch device.Mode {
	case emulator.ModePK:
		return combat.NewAgent(device.Serial, f.PK, deps), nil
	case emulator.ModeHybrid:
		return combat.NewAgent(device.Serial, f.Hybrid, deps), nil
	case emulator.ModeAuto:
		return combat.NewAutoWorker(device.Serial, f.Auto, deps), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, device.Mode)
	}
}
