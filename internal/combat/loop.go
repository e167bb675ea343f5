package combat

import (
	"context"
	"fmt"
	"time"

	"jordanella.com/pk-hunter/internal/events"
	"jordanella.com/pk-hunter/internal/logging"
)

// cycleFunc runs one capture-analyze-act pass and returns the delay before
// the next one
type cycleFunc func(ctx context.Context) (time.Duration, error)

// runLoop repeats cycle until ctx is cancelled. Cycle errors and panics are
// logged once and followed by backoff.
func runLoop(ctx context.Context, log logging.Sink, onFailure func(error), backoff time.Duration, cycle cycleFunc) {
	for ctx.Err() == nil {
		delay, err := safeCycle(ctx, cycle)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Log(fmt.Sprintf("cycle failed: %v", err))
			onFailure(err)
			delay = backoff
		}
		if !sleep(ctx, delay) {
			return
		}
	}
}

func safeCycle(ctx context.Context, cycle cycleFunc) (delay time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cycle(ctx)
}

// sleep waits for d and reports false when ctx ends first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// gated holds the gate for one capture plus its taps. Release is idempotent.
type gated struct {
	gate     Gate
	released bool
}

func acquire(ctx context.Context, gate Gate) (*gated, error) {
	if err := gate.Acquire(ctx); err != nil {
		return nil, err
	}
	return &gated{gate: gate}, nil
}

func (g *gated) Release() {
	if !g.released {
		g.released = true
		g.gate.Release()
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
