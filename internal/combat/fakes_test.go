package combat

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"jordanella.com/pk-hunter/internal/cv"
	"jordanella.com/pk-hunter/internal/events"
	"jordanella.com/pk-hunter/internal/logging"
)

type tapRecord struct {
	Serial string
	Point  image.Point
}

type fakeChannel struct {
	mu      sync.Mutex
	frames  []*image.RGBA
	calls   int
	taps    []tapRecord
	capErr  error
	onFrame func(call int)
}

func (f *fakeChannel) CaptureScreen(ctx context.Context, serial string) (*image.RGBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onFrame != nil {
		f.onFrame(f.calls)
	}
	if f.capErr != nil {
		f.calls++
		return nil, f.capErr
	}
	i := f.calls
	if i >= len(f.frames) {
		i = len(f.frames) - 1
	}
	f.calls++
	return f.frames[i], nil
}

func (f *fakeChannel) Tap(ctx context.Context, serial string, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taps = append(f.taps, tapRecord{Serial: serial, Point: image.Pt(x, y)})
	return nil
}

func (f *fakeChannel) tapped() []image.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]image.Point, len(f.taps))
	for i, t := range f.taps {
		out[i] = t.Point
	}
	return out
}

type fakeStore struct {
	templates map[string]*cv.Template
	bar       cv.HealthBarConfig
}

func (s *fakeStore) Template(name string) (*cv.Template, error) {
	if t, ok := s.templates[name]; ok {
		return t, nil
	}
	return nil, errors.New("template not found: " + name)
}

func (s *fakeStore) Override(string) (float64, *image.Rectangle) { return 0, nil }

func (s *fakeStore) HealthBarConfig(cv.TargetKind) cv.HealthBarConfig { return s.bar }

type countingGate struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (g *countingGate) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.acquired++
	g.mu.Unlock()
	return nil
}

func (g *countingGate) Release() {
	g.mu.Lock()
	g.released++
	g.mu.Unlock()
}

func (g *countingGate) balanced() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acquired == g.released
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) Publish(e events.Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.EventType
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) sink() logging.Sink {
	return logging.SinkFunc(func(s string) {
		l.mu.Lock()
		l.lines = append(l.lines, s)
		l.mu.Unlock()
	})
}

func (l *lineLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// scene builds frames on a flat gray background with noise-textured buttons
type scene struct {
	t       *testing.T
	buttons map[string]*image.RGBA
	store   *fakeStore
}

func newScene(t *testing.T, names ...string) *scene {
	s := &scene{
		t:       t,
		buttons: make(map[string]*image.RGBA),
		store:   &fakeStore{templates: make(map[string]*cv.Template), bar: cv.DefaultHealthBarConfig()},
	}
	for i, name := range names {
		btn := noisePatch(16, 16, uint64(i+1))
		s.buttons[name] = btn
		tpl, err := cv.NewTemplate(name, btn)
		require.NoError(t, err)
		s.store.templates[name] = tpl
	}
	return s
}

// frame places the named buttons at their positions. A true redBar paints
// the calibrated health bar.
func (s *scene) frame(redBar bool, at map[string]image.Point) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	draw.Draw(img, img.Rect, image.NewUniform(color.RGBA{120, 120, 120, 255}), image.Point{}, draw.Src)
	if redBar {
		bar := s.store.bar.Rect().Rectangle()
		draw.Draw(img, bar, image.NewUniform(color.RGBA{200, 30, 30, 255}), image.Point{}, draw.Src)
	}
	for name, p := range at {
		btn := s.buttons[name]
		require.NotNil(s.t, btn, name)
		draw.Draw(img, btn.Rect.Add(p), btn, image.Point{}, draw.Src)
	}
	return img
}

func noisePatch(w, h int, seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed*7+1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		v := uint8(rng.IntN(256))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

// center of a 16x16 button placed at p
func center(p image.Point) image.Point {
	return p.Add(image.Pt(8, 8))
}

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.LockSettle = 0
	cfg.SkillCastDelay = 0
	cfg.EngagedDelay = 0
	cfg.FollowWait = 0
	cfg.TabSwitchWait = 0
	cfg.RespawnSettle = 0
	cfg.CycleDelay = 0
	cfg.ErrorBackoff = 0
	return cfg
}
