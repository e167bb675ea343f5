package combat

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jordanella.com/pk-hunter/internal/events"
)

func quickAutoConfig(names ...string) AutoConfig {
	cfg := DefaultAutoConfig()
	cfg.Templates = names
	cfg.Cooldown = 0
	cfg.PollInterval = 0
	cfg.MaxJitter = 0
	cfg.ErrorBackoff = 0
	return cfg
}

func TestAutoWorkerTapsBestMatch(t *testing.T) {
	s := newScene(t, "ok.png", "close.png")
	at := image.Pt(120, 80)
	ch := &fakeChannel{frames: []*image.RGBA{s.frame(false, map[string]image.Point{"close.png": at})}}
	evs := &eventLog{}
	gate := &countingGate{}

	w := NewAutoWorker(serial, quickAutoConfig("ok.png", "close.png"), Dependencies{
		Channel: ch, Templates: s.store, Gate: gate, Events: evs,
	})

	_, err := w.cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []image.Point{center(at)}, ch.tapped())
	assert.Equal(t, 1, w.Taps())
	assert.Equal(t, []events.EventType{events.EventTypeTemplateTapped}, evs.types())
	assert.True(t, gate.balanced())
}

func TestAutoWorkerIdlesWithoutMatch(t *testing.T) {
	s := newScene(t, "ok.png")
	ch := &fakeChannel{frames: []*image.RGBA{s.frame(false, nil)}}
	cfg := quickAutoConfig("ok.png")
	cfg.PollInterval = 700 * time.Millisecond

	w := NewAutoWorker(serial, cfg, Dependencies{Channel: ch, Templates: s.store})
	delay, err := w.cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.PollInterval, delay)
	assert.Empty(t, ch.tapped())
}

func TestAutoWorkerWaitsAfterAppearAndStops(t *testing.T) {
	s := newScene(t, "ok.png")
	ch := &fakeChannel{frames: []*image.RGBA{s.frame(false, map[string]image.Point{"ok.png": {40, 40}})}}
	cfg := quickAutoConfig("ok.png")
	cfg.WaitAfterAppear = 10 * time.Millisecond
	cfg.MaxJitter = 5 * time.Millisecond
	cfg.Cooldown = 5 * time.Millisecond
	gate := &countingGate{}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewAutoWorker(serial, cfg, Dependencies{Channel: ch, Templates: s.store, Gate: gate})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.Eventually(t, func() bool { return len(ch.tapped()) >= 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, gate.balanced())
}

func TestAutoWorkerTapCountReadableWhileRunning(t *testing.T) {
	s := newScene(t, "ok.png")
	ch := &fakeChannel{frames: []*image.RGBA{s.frame(false, map[string]image.Point{"ok.png": {40, 40}})}}
	cfg := quickAutoConfig("ok.png")
	cfg.Cooldown = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	w := NewAutoWorker(serial, cfg, Dependencies{Channel: ch, Templates: s.store})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.Eventually(t, func() bool { return w.Taps() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, len(ch.tapped()), w.Taps())
}
