package combat

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"jordanella.com/pk-hunter/internal/cv"
	"jordanella.com/pk-hunter/internal/events"
	"jordanella.com/pk-hunter/internal/logging"
)

// Dependencies are the collaborators an agent needs
type Dependencies struct {
	Channel   Channel
	Templates TemplateSource
	Gate      Gate             // nil admits every request
	Log       logging.Sink     // nil discards
	Events    events.Publisher // nil discards
	SessionID string
}

func (d *Dependencies) fill() {
	if d.Gate == nil {
		d.Gate = openGate{}
	}
	if d.Log == nil {
		d.Log = logging.Discard
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
}

// Agent is the combat state machine for one device
type Agent struct {
	serial  string
	cfg     Config
	deps    Dependencies
	vision  *cv.Service
	bar     cv.HealthBarConfig
	timeout time.Duration
	casts   *rate.Limiter

	mu       sync.Mutex
	snapshot Snapshot
	// In-place revives since the last town revive
	spotUses int
}

// NewAgent loads the calibrated bar for cfg.Target and builds an agent
func NewAgent(serial string, cfg Config, deps Dependencies) *Agent {
	deps.fill()
	if cfg.Target == "" {
		cfg.Target = cv.TargetPlayer
	}

	a := &Agent{
		serial:   serial,
		cfg:      cfg,
		deps:     deps,
		bar:      deps.Templates.HealthBarConfig(cfg.Target),
		casts:    rate.NewLimiter(rate.Every(cfg.SkillCastDelay), 1),
		snapshot: Snapshot{Serial: serial, State: StateIdle},
	}
	a.vision = cv.NewService(deps.Templates, deps.Log.Log)

	a.timeout = cfg.NoTargetTimeout
	if a.timeout <= 0 {
		a.timeout = time.Duration(a.bar.NoEnemyTimeoutMs) * time.Millisecond
	}
	if a.timeout <= 0 {
		a.timeout = DefaultConfig().NoTargetTimeout
	}
	return a
}

// Serial returns the device serial
func (a *Agent) Serial() string {
	return a.serial
}

// State returns a copy of the runtime state
func (a *Agent) State() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// Run drives the agent until ctx is cancelled
func (a *Agent) Run(ctx context.Context) error {
	a.logf("combat started: bar %v, tap %v, timeout %v", a.bar.Rect().Rectangle(), a.bar.TapPoint(), a.timeout)
	a.touchTarget()

	a.initializeTab(ctx)
	runLoop(ctx, a.deps.Log, a.cycleFailed, a.cfg.ErrorBackoff, a.cycle)

	a.logf("combat stopped")
	return nil
}

// initializeTab opens the nearby players tab once at startup
func (a *Agent) initializeTab(ctx context.Context) {
	g, err := acquire(ctx, a.deps.Gate)
	if err != nil {
		return
	}
	defer g.Release()

	frame, err := a.deps.Channel.CaptureScreen(ctx, a.serial)
	if err != nil {
		a.logf("tab init skipped: %v", err)
		return
	}

	m := a.vision.Find(frame, a.cfg.Templates.NearbyTab, cv.MatchConfig{Threshold: a.cfg.UIThreshold})
	if m == nil {
		a.logf("nearby tab button not visible, assuming tab is open")
		return
	}
	if err := a.tap(ctx, m.Center); err != nil {
		a.logf("tab init tap failed: %v", err)
		return
	}
	g.Release()
	sleep(ctx, a.cfg.TabSwitchWait)
}

func (a *Agent) cycle(ctx context.Context) (time.Duration, error) {
	cycles := a.update(func(s *Snapshot) { s.Cycles++ }).Cycles

	g, err := acquire(ctx, a.deps.Gate)
	if err != nil {
		return 0, err
	}
	defer g.Release()

	frame, err := a.deps.Channel.CaptureScreen(ctx, a.serial)
	if err != nil {
		return 0, fmt.Errorf("failed to capture screen: %w", err)
	}

	if a.cfg.Respawn {
		if handled, err := a.respawn(ctx, frame); handled || err != nil {
			return a.cfg.RespawnSettle, err
		}
	}

	vs := cv.CheckVitalSigns(frame, a.bar.Rect(), a.cfg.VitalMinPixels)
	health := cv.HealthNotFound
	if a.cfg.ScanHealthBar {
		health = cv.ScanHealthBar(frame, a.bar, a.cfg.Target == cv.TargetBoss)
	}

	// Hybrid agents also accept the target-frame signature as presence.
	if vs.Alive || health > 0 || (a.cfg.ScanHealthBar && cv.HasEnemySignature(frame)) {
		if err := a.engage(ctx, frame, vs, health); err != nil {
			return 0, err
		}
		return a.cfg.EngagedDelay, nil
	}

	if a.State().State == StateEngaged || a.State().State == StateRecovering {
		a.setState(StateIdle)
	}

	if time.Since(a.State().LastSeenTarget) >= a.timeout {
		g.Release()
		if err := a.follow(ctx, frame); err != nil {
			return 0, err
		}
		return a.cfg.CycleDelay, nil
	}

	if a.cfg.TabSelfHeal && a.cfg.NavCheckEvery > 0 && cycles%a.cfg.NavCheckEvery == 0 {
		if err := a.healTab(ctx, frame); err != nil {
			return 0, err
		}
	}
	return a.cfg.CycleDelay, nil
}

// engage locks the target and casts every visible skill
func (a *Agent) engage(ctx context.Context, frame *image.RGBA, vs cv.VitalSigns, health float64) error {
	if a.State().State != StateEngaged {
		a.logf("target found: health bar %t, name tag %t, scan %.1f%%", vs.HasHealthBar, vs.HasNameTag, health)
	}
	a.setState(StateEngaged)
	a.touchTarget()

	if err := a.tap(ctx, a.bar.TapPoint()); err != nil {
		return fmt.Errorf("failed to lock target: %w", err)
	}
	if !sleep(ctx, a.cfg.LockSettle) {
		return ctx.Err()
	}

	cast := 0
	for _, skill := range a.cfg.Templates.Skills {
		m := a.vision.Find(frame, skill, cv.MatchConfig{Threshold: a.cfg.UIThreshold})
		if m == nil {
			continue
		}
		if err := a.casts.Wait(ctx); err != nil {
			return err
		}
		if err := a.tap(ctx, m.Center); err != nil {
			return fmt.Errorf("failed to cast %s: %w", skill, err)
		}
		cast++
	}

	a.update(func(s *Snapshot) { s.Engagements++ })
	a.deps.Events.Publish(events.NewTargetEngagedEvent(a.serial, a.deps.SessionID, health, cast))
	return nil
}

// follow taps the follow button, waits, then tries to summon. The caller
// has released the gate; the summon capture takes it again.
func (a *Agent) follow(ctx context.Context, frame *image.RGBA) error {
	a.setState(StateFollowing)
	defer a.setState(StateIdle)
	a.logf("no target for %v, following leader", a.timeout)

	if m := a.vision.Find(frame, a.cfg.Templates.Follow, cv.MatchConfig{Threshold: a.cfg.UIThreshold}); m != nil {
		if err := a.gatedTap(ctx, m.Center); err != nil {
			return fmt.Errorf("failed to tap follow: %w", err)
		}
	} else {
		a.logf("follow button not visible")
	}

	if !sleep(ctx, a.cfg.FollowWait) {
		return ctx.Err()
	}

	summoned, err := a.trySummon(ctx)
	a.touchTarget()
	if err != nil {
		return err
	}
	a.deps.Events.Publish(events.NewFollowedEvent(a.serial, a.deps.SessionID, summoned))
	return nil
}

func (a *Agent) trySummon(ctx context.Context) (bool, error) {
	g, err := acquire(ctx, a.deps.Gate)
	if err != nil {
		return false, err
	}
	defer g.Release()

	frame, err := a.deps.Channel.CaptureScreen(ctx, a.serial)
	if err != nil {
		return false, fmt.Errorf("failed to capture screen: %w", err)
	}
	m := a.vision.Find(frame, a.cfg.Templates.Summon, cv.MatchConfig{Threshold: a.cfg.SummonThreshold})
	if m == nil {
		return false, nil
	}
	if err := a.tap(ctx, m.Center); err != nil {
		return false, fmt.Errorf("failed to tap summon: %w", err)
	}
	a.logf("summon tapped at %v", m.Center)
	return true, nil
}

// respawn handles the death screen. In-place revives are used until the
// budget is spent, then one town revive resets the count.
func (a *Agent) respawn(ctx context.Context, frame *image.RGBA) (bool, error) {
	cfg := cv.MatchConfig{Threshold: a.cfg.Threshold}
	inPlace := a.vision.Find(frame, a.cfg.Templates.RespawnInPlace, cfg)
	inTown := a.vision.Find(frame, a.cfg.Templates.RespawnInTown, cfg)
	if inPlace == nil && inTown == nil {
		return false, nil
	}

	a.setState(StateRecovering)
	useSpot := inPlace != nil && (a.spotUses < a.cfg.RespawnBudget || inTown == nil)

	var err error
	if useSpot {
		a.spotUses++
		a.logf("respawning in place (%d/%d)", a.spotUses, a.cfg.RespawnBudget)
		err = a.tap(ctx, inPlace.Center)
	} else {
		a.spotUses = 0
		a.logf("respawning in town")
		err = a.tap(ctx, inTown.Center)
	}
	if err != nil {
		return true, fmt.Errorf("failed to tap respawn: %w", err)
	}

	a.touchTarget()
	a.update(func(s *Snapshot) { s.Respawns++ })
	a.deps.Events.Publish(events.NewRespawnedEvent(a.serial, a.deps.SessionID, useSpot, a.spotUses))
	return true, nil
}

// healTab reopens the nearby tab when its marker is missing from the tab area
func (a *Agent) healTab(ctx context.Context, frame *image.RGBA) error {
	region := a.bar.NearbyTab.Rectangle()
	if a.bar.NearbyTab.Empty() {
		return nil
	}
	if a.vision.Exists(frame, a.cfg.Templates.NearbyMarker, cv.MatchConfig{Threshold: a.cfg.Threshold, SearchRegion: &region}) {
		return nil
	}

	a.logf("nearby tab lost, switching back")
	if err := a.tap(ctx, a.bar.NearbyTab.Center()); err != nil {
		return fmt.Errorf("failed to tap nearby tab: %w", err)
	}
	return nil
}

func (a *Agent) tap(ctx context.Context, p image.Point) error {
	if err := a.deps.Channel.Tap(ctx, a.serial, p.X, p.Y); err != nil {
		return err
	}
	a.update(func(s *Snapshot) { s.LastAction = time.Now() })
	return nil
}

func (a *Agent) gatedTap(ctx context.Context, p image.Point) error {
	g, err := acquire(ctx, a.deps.Gate)
	if err != nil {
		return err
	}
	defer g.Release()
	return a.tap(ctx, p)
}

func (a *Agent) setState(next State) {
	prev := a.update(func(s *Snapshot) {}).State
	if prev == next {
		return
	}
	a.update(func(s *Snapshot) { s.State = next })
	a.logf("state %s -> %s", prev, next)
	a.deps.Events.Publish(events.NewStateChangedEvent(a.serial, a.deps.SessionID, prev.String(), next.String()))
}

func (a *Agent) touchTarget() {
	a.update(func(s *Snapshot) { s.LastSeenTarget = time.Now() })
}

func (a *Agent) cycleFailed(err error) {
	a.update(func(s *Snapshot) { s.Failures++ })
	a.deps.Events.Publish(events.NewCycleFailedEvent(a.serial, a.deps.SessionID, err))
}

// update applies fn under the lock and returns the resulting snapshot
func (a *Agent) update(fn func(*Snapshot)) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.snapshot)
	return a.snapshot
}

func (a *Agent) logf(format string, args ...interface{}) {
	a.deps.Log.Log(fmt.Sprintf(format, args...))
}
