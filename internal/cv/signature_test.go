package cv

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasEnemySignature(t *testing.T) {
	tests := []struct {
		name  string
		paint func(img *image.RGBA)
		want  bool
	}{
		{"plain field", func(*image.RGBA) {}, false},
		{"eleven purple", func(img *image.RGBA) { paint(img, image.Rect(10, 10, 21, 11), purple) }, true},
		{"ten purple", func(img *image.RGBA) { paint(img, image.Rect(10, 10, 20, 11), purple) }, false},
		{"eleven yellow", func(img *image.RGBA) { paint(img, image.Rect(10, 10, 21, 11), yellow) }, true},
		{"fifty one red", func(img *image.RGBA) { paint(img, image.Rect(0, 0, 51, 1), red) }, true},
		{"fifty red", func(img *image.RGBA) { paint(img, image.Rect(0, 0, 50, 1), red) }, false},
		{"purple outside window", func(img *image.RGBA) { paint(img, image.Rect(200, 10, 260, 20), purple) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solid(400, 300, grass)
			tt.paint(img)
			assert.Equal(t, tt.want, HasEnemySignature(img))
		})
	}
}

func TestHasEnemySignatureSmallScreen(t *testing.T) {
	img := solid(50, 40, grass)
	paint(img, image.Rect(0, 0, 50, 2), red)
	assert.True(t, HasEnemySignature(img))
	assert.False(t, HasEnemySignature(nil))
}

func TestCheckVitalSignsThresholdBoundary(t *testing.T) {
	bar := NewRect(20, 40, 100, 10)

	img := solid(200, 100, grass)
	paint(img, image.Rect(30, 20, 35, 30), purple) // 50 pixels, inside the name extension
	vs := CheckVitalSigns(img, bar, 50)
	assert.True(t, vs.Alive)
	assert.True(t, vs.HasNameTag)
	assert.False(t, vs.HasHealthBar)
	assert.Equal(t, 50, vs.PurplePixels)

	img = solid(200, 100, grass)
	paint(img, image.Rect(30, 20, 37, 27), purple) // 49 pixels
	vs = CheckVitalSigns(img, bar, 50)
	assert.False(t, vs.Alive)
	assert.Equal(t, 49, vs.PurplePixels)
}

func TestCheckVitalSignsHealthBar(t *testing.T) {
	bar := NewRect(20, 40, 100, 10)
	img := solid(200, 100, grass)
	paint(img, image.Rect(20, 40, 80, 50), red)

	vs := CheckVitalSigns(img, bar, DefaultVitalMinPixels)
	assert.True(t, vs.Alive)
	assert.True(t, vs.HasHealthBar)
	assert.False(t, vs.HasNameTag)

	paint(img, image.Rect(20, 0, 120, 14), yellow) // above the extended window
	assert.False(t, CheckVitalSigns(img, bar, DefaultVitalMinPixels).HasNameTag)
	assert.Equal(t, VitalSigns{}, CheckVitalSigns(img, Rect{}, 1))
}
