package cv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hsvOf converts one color through OpenCV
func hsvOf(t *testing.T, c color.RGBA) HSV {
	t.Helper()
	frame, err := NewHSVFrame(solid(1, 1, c), image.Rect(0, 0, 1, 1))
	require.NoError(t, err)
	defer frame.Close()
	return frame.At(0, 0)
}

func TestHSVConversion(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"red", 255, 0, 0, HSV{0, 255, 255}},
		{"green", 0, 255, 0, HSV{60, 255, 255}},
		{"blue", 0, 0, 255, HSV{120, 255, 255}},
		{"magenta", 255, 0, 255, HSV{150, 255, 255}},
		{"gray", 128, 128, 128, HSV{0, 0, 128}},
		{"black", 0, 0, 0, HSV{0, 0, 0}},
		{"crimson wraps high", 220, 20, 60, HSV{174, 232, 220}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hsvOf(t, color.RGBA{tt.r, tt.g, tt.b, 255}))
		})
	}
}

func TestClassifyBands(t *testing.T) {
	p := hsvOf(t, purple)
	assert.True(t, Classify(p, BandPurple))
	assert.True(t, Classify(p, BandTagPurple))
	assert.True(t, Classify(p, BandIdentityPink))
	assert.False(t, Classify(p, BandRed))

	assert.True(t, Classify(hsvOf(t, red), BandRed))
	assert.True(t, Classify(hsvOf(t, crimson), BandRed), "hue past the wraparound")
	assert.True(t, Classify(hsvOf(t, yellow), BandTagYellow))
	assert.True(t, Classify(hsvOf(t, dark), BandBarDark))
	assert.False(t, Classify(hsvOf(t, colorGray(5)), BandBarDark), "near-black is not bar background")

	g := hsvOf(t, grass)
	for b := range bandTable {
		assert.False(t, Classify(g, b), "grass must not fall in %s", b)
	}
}

func TestCountBandClipsToImage(t *testing.T) {
	img := solid(10, 10, red)
	assert.Equal(t, 100, CountBand(img, image.Rect(-5, -5, 50, 50), BandRed))
	assert.Equal(t, 0, CountBand(img, image.Rect(20, 20, 30, 30), BandRed))
}

func TestBandString(t *testing.T) {
	assert.Equal(t, "purple", BandPurple.String())
	assert.Equal(t, "band(99)", Band(99).String())
}
