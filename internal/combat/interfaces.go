package combat

import (
	"context"
	"image"

	"jordanella.com/pk-hunter/internal/cv"
)

// Channel is the device control channel used by agents
type Channel interface {
	CaptureScreen(ctx context.Context, serial string) (*image.RGBA, error)
	Tap(ctx context.Context, serial string, x, y int) error
}

// TemplateSource serves templates and calibrated health bars
type TemplateSource interface {
	cv.TemplateSource
	HealthBarConfig(kind cv.TargetKind) cv.HealthBarConfig
}

// Gate bounds how many devices talk to the channel at once
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

type openGate struct{}

func (openGate) Acquire(ctx context.Context) error { return ctx.Err() }
func (openGate) Release()                          {}
