package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/config"
	"jordanella.com/pk-hunter/internal/logging"
)

var (
	settings *config.Settings
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "pk-hunter",
	Short:         "Screen-driven combat automation for Android emulators",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "Settings.ini", "settings file")
	flags.String("log-level", "", "override the log level (debug, info, warn, error)")
	flags.String("log-file", "", "override the rotating log file")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.file", flags.Lookup("log-file"))

	viper.SetEnvPrefix("PKHUNT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newRunCmd(), newDevicesCmd(), newCalibrateCmd())
}

// initialize loads Settings.ini, applies flag and environment overrides and
// builds the logger.
func initialize() error {
	s, err := config.LoadSettings(viper.GetString("config"))
	if err != nil {
		return err
	}
	if level := viper.GetString("log.level"); level != "" {
		s.Logging.Level = level
	}
	if file := viper.GetString("log.file"); file != "" {
		s.Logging.File = file
	}
	if path := viper.GetString("adb.path"); path != "" {
		s.ADB.Path = path
	}

	settings = s
	logger = logging.New(s.Logging, nil)
	logger.Debug("settings loaded", zap.String("path", viper.GetString("config")))
	return nil
}
