package combat

import (
	"time"

	"jordanella.com/pk-hunter/internal/cv"
)

// Templates names the UI templates an agent looks for
type Templates struct {
	NearbyTab      string   // Switches the side panel to nearby players
	NearbyMarker   string   // Visible while the nearby tab is open
	Follow         string   // Follow the party leader
	Summon         string   // Rally to the leader after following
	RespawnInPlace string   // Revive where the character died
	RespawnInTown  string   // Revive at the town spawn
	Skills         []string // Cast in order while engaged
}

// DefaultTemplates returns the stock template file names
func DefaultTemplates() Templates {
	return Templates{
		NearbyTab:      "lancan.png",
		NearbyMarker:   "Nguoichoigoctrai.png",
		Follow:         "theosau.png",
		Summon:         "trieutap_tienden.png",
		RespawnInPlace: "hoisinhtaicho.png",
		RespawnInTown:  "hoisinhvethanh.png",
		Skills: []string{
			"skill1.png", "skill2.png", "skill3.png",
			"skill4.png", "skill5.png", "skill6.png",
		},
	}
}

// Config tunes one combat agent
type Config struct {
	Templates Templates

	// Feature switches; PK only handles respawns, Hybrid turns all on
	Respawn       bool
	TabSelfHeal   bool
	ScanHealthBar bool
	Target        cv.TargetKind // Boss relaxes the identity check of the bar scan

	Threshold       float64 // Respawn and nearby marker templates
	UIThreshold     float64 // Nearby tab, follow and skill templates
	SummonThreshold float64

	VitalMinPixels int
	// NoTargetTimeout of zero defers to the calibrated bar's timeout
	NoTargetTimeout time.Duration

	LockSettle     time.Duration // After tapping the target
	SkillCastDelay time.Duration // Minimum spacing between skill taps
	EngagedDelay   time.Duration // Before the next scan while engaged
	FollowWait     time.Duration // Between follow and summon
	TabSwitchWait  time.Duration
	RespawnBudget  int // In-place revives before forcing town
	RespawnSettle  time.Duration
	NavCheckEvery  int // Cycles between nearby tab checks
	CycleDelay     time.Duration
	ErrorBackoff   time.Duration
}

// DefaultConfig returns the PK preset
func DefaultConfig() Config {
	return Config{
		Templates:       DefaultTemplates(),
		Respawn:         true,
		Target:          cv.TargetPlayer,
		Threshold:       0.95,
		UIThreshold:     0.70,
		SummonThreshold: 0.65,
		VitalMinPixels:  cv.DefaultVitalMinPixels,
		NoTargetTimeout: 5 * time.Second,
		LockSettle:      100 * time.Millisecond,
		SkillCastDelay:  120 * time.Millisecond,
		EngagedDelay:    200 * time.Millisecond,
		FollowWait:      2 * time.Second,
		TabSwitchWait:   time.Second,
		RespawnBudget:   3,
		RespawnSettle:   3 * time.Second,
		NavCheckEvery:   10,
		CycleDelay:      300 * time.Millisecond,
		ErrorBackoff:    time.Second,
	}
}

// HybridConfig returns the PK preset plus nearby tab self-healing and health
// bar scanning.
func HybridConfig(boss bool) Config {
	cfg := DefaultConfig()
	cfg.TabSelfHeal = true
	cfg.ScanHealthBar = true
	if boss {
		cfg.Target = cv.TargetBoss
	}
	return cfg
}

// AutoConfig tunes the template-tap worker
type AutoConfig struct {
	Templates       []string
	Threshold       float64
	WaitAfterAppear time.Duration
	Cooldown        time.Duration
	PollInterval    time.Duration
	MaxJitter       time.Duration
	ErrorBackoff    time.Duration
}

// DefaultAutoConfig returns the stock auto-mode timings
func DefaultAutoConfig() AutoConfig {
	return AutoConfig{
		Threshold:    0.95,
		Cooldown:     800 * time.Millisecond,
		PollInterval: 700 * time.Millisecond,
		MaxJitter:    200 * time.Millisecond,
		ErrorBackoff: time.Second,
	}
}
