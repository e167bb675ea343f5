package combat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"jordanella.com/pk-hunter/internal/cv"
	"jordanella.com/pk-hunter/internal/events"
)

// AutoWorker taps whichever configured template is best matched each cycle
type AutoWorker struct {
	serial string
	cfg    AutoConfig
	deps   Dependencies
	vision *cv.Service
	taps   atomic.Int64
}

// NewAutoWorker creates a worker for one device
func NewAutoWorker(serial string, cfg AutoConfig, deps Dependencies) *AutoWorker {
	deps.fill()
	return &AutoWorker{
		serial: serial,
		cfg:    cfg,
		deps:   deps,
		vision: cv.NewService(deps.Templates, deps.Log.Log),
	}
}

// Taps returns how many templates were tapped. Safe to call while Run is active.
func (w *AutoWorker) Taps() int {
	return int(w.taps.Load())
}

// Run drives the worker until ctx is cancelled
func (w *AutoWorker) Run(ctx context.Context) error {
	if len(w.cfg.Templates) == 0 {
		w.deps.Log.Log("auto mode has no templates configured")
	}
	w.deps.Log.Log(fmt.Sprintf("auto started with %d templates", len(w.cfg.Templates)))

	onFailure := func(err error) {
		w.deps.Events.Publish(events.NewCycleFailedEvent(w.serial, w.deps.SessionID, err))
	}
	runLoop(ctx, w.deps.Log, onFailure, w.cfg.ErrorBackoff, w.cycle)

	w.deps.Log.Log("auto stopped")
	return nil
}

func (w *AutoWorker) cycle(ctx context.Context) (time.Duration, error) {
	if w.cfg.MaxJitter > 0 && !sleep(ctx, rand.N(w.cfg.MaxJitter)) {
		return 0, ctx.Err()
	}

	g, err := acquire(ctx, w.deps.Gate)
	if err != nil {
		return 0, err
	}
	defer g.Release()

	frame, err := w.deps.Channel.CaptureScreen(ctx, w.serial)
	if err != nil {
		return 0, fmt.Errorf("failed to capture screen: %w", err)
	}

	m := w.vision.FindAny(frame, w.cfg.Templates, cv.MatchConfig{Threshold: w.cfg.Threshold})
	if m == nil {
		return w.cfg.PollInterval, nil
	}

	if w.cfg.WaitAfterAppear > 0 {
		g.Release()
		if !sleep(ctx, w.cfg.WaitAfterAppear) {
			return 0, ctx.Err()
		}
		if g, err = acquire(ctx, w.deps.Gate); err != nil {
			return 0, err
		}
		defer g.Release()
	}

	if err := w.deps.Channel.Tap(ctx, w.serial, m.Center.X, m.Center.Y); err != nil {
		return 0, fmt.Errorf("failed to tap %s: %w", m.Template, err)
	}
	w.taps.Add(1)
	w.deps.Log.Log(fmt.Sprintf("tapped %s at %v (score %.3f)", m.Template, m.Center, m.Score))
	w.deps.Events.Publish(events.NewTemplateTappedEvent(w.serial, w.deps.SessionID, m.Template, m.Score))

	return w.cfg.Cooldown + w.cfg.PollInterval, nil
}
