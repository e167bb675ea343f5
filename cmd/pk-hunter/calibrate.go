package main

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"jordanella.com/pk-hunter/internal/cv"
	"jordanella.com/pk-hunter/pkg/templates"
)

type calibrateOptions struct {
	image     string
	device    string
	kind      string
	rect      []int
	tap       []int
	timeoutMs int
}

func newCalibrateCmd() *cobra.Command {
	var opts calibrateOptions
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Store the health bar rectangle and sample its reference color",
		Long: "Calibrate reads a screenshot, either from --image or captured from --device,\n" +
			"samples the bar color inside --rect and writes the calibration for --kind.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return calibrate(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.image, "image", "", "screenshot file (PNG, BMP or WebP)")
	flags.StringVar(&opts.device, "device", "", "capture the screenshot from this serial instead")
	flags.StringVar(&opts.kind, "kind", string(cv.TargetPlayer), "target kind: player or boss")
	flags.IntSliceVar(&opts.rect, "rect", nil, "bar rectangle as x,y,width,height")
	flags.IntSliceVar(&opts.tap, "tap", nil, "lock tap point as x,y")
	flags.IntVar(&opts.timeoutMs, "timeout-ms", -1, "no-target timeout in milliseconds")
	_ = cmd.MarkFlagRequired("rect")
	cmd.MarkFlagsMutuallyExclusive("image", "device")
	return cmd
}

func calibrate(ctx context.Context, opts calibrateOptions) error {
	if len(opts.rect) != 4 {
		return fmt.Errorf("--rect needs 4 values, got %d", len(opts.rect))
	}
	if opts.tap != nil && len(opts.tap) != 2 {
		return fmt.Errorf("--tap needs 2 values, got %d", len(opts.tap))
	}
	kind := cv.TargetKind(opts.kind)

	shot, err := loadScreenshot(ctx, opts)
	if err != nil {
		return err
	}

	store := templates.NewFileStore(settings.Storage.TemplateDir, settings.Storage.ConfigDir, nil)
	cfg := store.HealthBarConfig(kind)
	cfg.X, cfg.Y, cfg.Width, cfg.Height = opts.rect[0], opts.rect[1], opts.rect[2], opts.rect[3]
	if opts.tap != nil {
		cfg.TapX, cfg.TapY = opts.tap[0], opts.tap[1]
	}
	if opts.timeoutMs >= 0 {
		cfg.NoEnemyTimeoutMs = opts.timeoutMs
	}
	if err := cfg.SampleColor(shot); err != nil {
		return err
	}
	if err := store.SaveHealthBarConfig(kind, cfg); err != nil {
		return err
	}

	vital := cv.CheckVitalSigns(shot, cfg.Rect(), settings.Vision.VitalMinPixels)
	health := cv.ScanHealthBar(shot, cfg, kind == cv.TargetBoss)
	logger.Info("calibration saved",
		zap.String("kind", opts.kind),
		zap.Any("rect", cfg.Rect().Rectangle()),
		zap.Uint8s("sample_rgb", []uint8{cfg.SampleR, cfg.SampleG, cfg.SampleB}),
		zap.Bool("alive", vital.Alive),
		zap.Float64("health", health))
	fmt.Printf("saved %s bar %v, sample rgb(%d,%d,%d), health %.1f%%\n",
		opts.kind, cfg.Rect().Rectangle(), cfg.SampleR, cfg.SampleG, cfg.SampleB, health)
	return nil
}

func loadScreenshot(ctx context.Context, opts calibrateOptions) (*image.RGBA, error) {
	if opts.device != "" {
		client, _, err := discover(ctx)
		if err != nil {
			return nil, err
		}
		return client.CaptureScreen(ctx, opts.device)
	}
	if opts.image == "" {
		return nil, fmt.Errorf("either --image or --device is required")
	}
	data, err := os.ReadFile(opts.image)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return cv.DecodeScreenshot(data)
}
