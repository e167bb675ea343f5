package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"jordanella.com/pk-hunter/internal/bot"
	"jordanella.com/pk-hunter/internal/database"
	"jordanella.com/pk-hunter/internal/emulator"
	"jordanella.com/pk-hunter/internal/events"
	"jordanella.com/pk-hunter/internal/logging"
	"jordanella.com/pk-hunter/internal/monitor"
	"jordanella.com/pk-hunter/pkg/templates"
)

const statusInterval = time.Minute

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start automation on the selected devices until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgents(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("devices", nil, "serials to automate (default: every online device)")
	flags.String("mode", "", "mode for the selected devices: auto, pk or hybrid")
	flags.Bool("boss", false, "hybrid agents track the boss health bar")
	flags.Int("max-concurrent", 0, "override the number of agents allowed on the channel at once")

	_ = viper.BindPFlag("run.devices", flags.Lookup("devices"))
	_ = viper.BindPFlag("run.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("run.boss", flags.Lookup("boss"))
	_ = viper.BindPFlag("run.max_concurrent", flags.Lookup("max-concurrent"))
	return cmd
}

func runAgents(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if viper.GetBool("run.boss") {
		settings.Combat.Boss = true
	}
	if n := viper.GetInt("run.max_concurrent"); n > 0 {
		settings.ADB.GateCapacity = n
	}

	client, emus, err := discover(ctx)
	if err != nil {
		return err
	}
	if err := selectDevices(emus, viper.GetStringSlice("run.devices"), viper.GetString("run.mode")); err != nil {
		return err
	}

	registry := templates.NewRegistry()
	if err := registry.LoadFromDirectory(settings.Storage.RegistryDir); err != nil {
		logger.Debug("no template registry loaded", zap.Error(err))
	}
	store := templates.NewFileStore(settings.Storage.TemplateDir, settings.Storage.ConfigDir, registry)
	if err := store.Preload(); err != nil {
		logger.Warn("template preload incomplete", zap.Error(err))
	}

	bus := events.NewEventBus(256)
	eventLog := logging.NewEventLogger(bus, logger)

	var db *database.DB
	var recorder *database.Recorder
	if settings.Storage.Database != "" {
		db, err = database.Open(settings.Storage.Database)
		if err != nil {
			bus.Stop()
			return fmt.Errorf("failed to open journal: %w", err)
		}
		db.WithLogger(logger)
		recorder = database.NewRecorder(db, bus, logger)
	}

	// The bus drains queued events on Stop, so subscribers detach afterwards.
	defer func() {
		bus.Stop()
		eventLog.Close()
		if recorder != nil {
			recorder.Close()
		}
		if db != nil {
			_ = db.Close()
		}
	}()

	factory := bot.NewModeFactory(client, store, logger)
	factory.Events = bus
	factory.PK = settings.CombatConfig(false)
	factory.Hybrid = settings.CombatConfig(true)
	factory.Auto = settings.AutoConfig()

	channel := monitor.NewChannelMonitor(client).
		WithCheckInterval(settings.ADB.ResetInterval).
		WithLogger(logger).
		WithEvents(bus).
		WithRestartedCallback(func(ctx context.Context) error {
			_, err := emus.Refresh(ctx)
			return err
		})

	manager := bot.NewManager(factory, bot.NewGate(settings.ADB.GateCapacity), logger).
		WithEvents(bus).
		WithMonitor(channel)

	selected := emus.Selected()
	if len(selected) == 0 {
		return fmt.Errorf("no devices selected")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Run(gctx)
	})
	g.Go(func() error {
		reportStatus(gctx, manager)
		return nil
	})

	for _, device := range selected {
		if _, err := manager.Start(gctx, device); err != nil {
			logger.Error("failed to start agent", zap.String("device", device.Serial), zap.Error(err))
		}
	}

	logger.Info("automation running",
		zap.Int("agents", len(manager.Running())),
		zap.Int("max_concurrent", manager.Gate().Capacity()))
	return g.Wait()
}

// selectDevices marks the requested serials, or every online device when
// none are named, and applies the mode override.
func selectDevices(emus *emulator.Manager, serials []string, modeName string) error {
	if len(serials) == 0 {
		for _, d := range emus.Devices() {
			serials = append(serials, d.Serial)
		}
	}

	var mode emulator.Mode
	if modeName != "" {
		m, err := emulator.ParseMode(modeName)
		if err != nil {
			return err
		}
		mode = m
	}

	for _, serial := range serials {
		if err := emus.Select(serial, true); err != nil {
			return err
		}
		if mode != "" {
			if err := emus.SetMode(serial, mode); err != nil {
				return err
			}
		}
	}
	return nil
}

func reportStatus(ctx context.Context, manager *bot.Manager) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		gate := manager.Gate()
		logger.Info("status",
			zap.Int("agents", len(manager.Running())),
			zap.Int("gate_acquired", gate.Acquired()),
			zap.Int("gate_peak", gate.Peak()))
		for _, info := range manager.Agents() {
			if info.Combat == nil {
				continue
			}
			logger.Info("agent status",
				zap.String("device", info.Serial),
				zap.String("state", info.Combat.State.String()),
				zap.Int("cycles", info.Combat.Cycles),
				zap.Int("engagements", info.Combat.Engagements),
				zap.Int("respawns", info.Combat.Respawns))
		}
	}
}
