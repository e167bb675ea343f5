package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/adb"
	"jordanella.com/pk-hunter/internal/emulator"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List online emulator instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, emus, err := discover(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERIAL\tTITLE\tSIZE\tMODE")
			for _, d := range emus.Devices() {
				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\n", d.Serial, d.Title, d.Width, d.Height, d.Mode)
			}
			return w.Flush()
		},
	}
}

// discover connects to adb and lists the online devices
func discover(ctx context.Context) (*adb.Client, *emulator.Manager, error) {
	path, err := adb.FindADB(settings.ADB.Path)
	if err != nil {
		return nil, nil, err
	}
	client := adb.NewClient(path, settings.ADB.Port).WithTimeout(settings.ADB.CommandTimeout)
	if err := client.StartServer(ctx); err != nil {
		logger.Warn("adb start-server failed", zap.Error(err))
	}

	var titles emulator.TitleSource
	if console, ok := adb.FindConsole(path); ok {
		titles = emulator.ConsoleTitles(console)
	}

	mode, err := emulator.ParseMode(settings.Combat.Mode)
	if err != nil {
		return nil, nil, err
	}

	emus := emulator.NewManager(client, titles, mode)
	devices, err := emus.Refresh(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("devices discovered", zap.String("adb", path), zap.Int("count", len(devices)))
	return client, emus, nil
}
