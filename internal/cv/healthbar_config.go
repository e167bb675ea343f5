package cv

import (
	"fmt"
	"image"
	"image/color"
)

// TargetKind selects which calibrated bar is used
type TargetKind string

const (
	TargetPlayer TargetKind = "player"
	TargetBoss   TargetKind = "boss"
)

// HealthBarConfig is the calibrated target frame: bar rectangle, sampled
// reference color, lock tap point and no-target timeout.
type HealthBarConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	SampleR uint8 `yaml:"sample_r"`
	SampleG uint8 `yaml:"sample_g"`
	SampleB uint8 `yaml:"sample_b"`

	ToleranceR uint8 `yaml:"tolerance_r"`
	ToleranceG uint8 `yaml:"tolerance_g"`
	ToleranceB uint8 `yaml:"tolerance_b"`

	TapX int `yaml:"tap_x"`
	TapY int `yaml:"tap_y"`

	NoEnemyTimeoutMs int `yaml:"no_enemy_timeout_ms"`

	// Navigation tab areas; template searches for the tabs stay inside these
	QuestTab  Rect `yaml:"quest_tab"`
	NearbyTab Rect `yaml:"nearby_tab"`
}

// DefaultHealthBarConfig returns the factory calibration
func DefaultHealthBarConfig() HealthBarConfig {
	return HealthBarConfig{
		X: 20, Y: 25, Width: 120, Height: 12,
		SampleR: 200, SampleG: 30, SampleB: 30,
		ToleranceR: 50, ToleranceG: 30, ToleranceB: 30,
		TapX: 24, TapY: 137,
		NoEnemyTimeoutMs: 3000,
		QuestTab:         NewRect(0, 130, 150, 80),
		NearbyTab:        NewRect(0, 290, 150, 80),
	}
}

// Rect returns the bar rectangle
func (c HealthBarConfig) Rect() Rect {
	return NewRect(c.X, c.Y, c.Width, c.Height)
}

// TapPoint returns the point tapped to lock the target
func (c HealthBarConfig) TapPoint() image.Point {
	return image.Pt(c.TapX, c.TapY)
}

// IsValid reports whether the bar rectangle has an area
func (c HealthBarConfig) IsValid() bool {
	return c.Width > 0 && c.Height > 0
}

// Validate returns an error describing an unusable calibration
func (c HealthBarConfig) Validate() error {
	if !c.IsValid() {
		return fmt.Errorf("health bar rectangle %dx%d has no area", c.Width, c.Height)
	}
	if c.NoEnemyTimeoutMs < 0 {
		return fmt.Errorf("no_enemy_timeout_ms must not be negative: %d", c.NoEnemyTimeoutMs)
	}
	return nil
}

// SampleColor reads the reference color at 10% of the bar width, mid-height
func (c *HealthBarConfig) SampleColor(img *image.RGBA) error {
	if !c.IsValid() {
		return fmt.Errorf("cannot sample: %w", c.Validate())
	}
	p := image.Pt(c.X+c.Width/10, c.Y+c.Height/2)
	if img == nil || !p.In(img.Rect) {
		return fmt.Errorf("%w: sample point %v outside screenshot", ErrInvalidImage, p)
	}
	rgba := img.RGBAAt(p.X, p.Y)
	c.SampleR, c.SampleG, c.SampleB = rgba.R, rgba.G, rgba.B
	return nil
}

// MatchesSample reports whether a pixel lies within the per-channel tolerances
func (c HealthBarConfig) MatchesSample(px color.RGBA) bool {
	within := func(v, ref, tol uint8) bool {
		d := int(v) - int(ref)
		if d < 0 {
			d = -d
		}
		return d <= int(tol)
	}
	return within(px.R, c.SampleR, c.ToleranceR) &&
		within(px.G, c.SampleG, c.ToleranceG) &&
		within(px.B, c.SampleB, c.ToleranceB)
}
