package cv

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchBestFindsCrop(t *testing.T) {
	screen := noise(120, 90, 1)
	tpl := mustTemplate("button", Crop(screen, image.Rect(40, 30, 60, 45)))

	got := MatchBest(screen, []*Template{tpl}, 0.95)
	require.NotNil(t, got)
	assert.Equal(t, "button", got.Template)
	assert.Equal(t, image.Pt(50, 37), got.Center)
	assert.InDelta(t, 1.0, got.Score, 1e-6)
}

func TestMatchBestRegionKeepsScreenCoordinates(t *testing.T) {
	screen := noise(120, 90, 2)
	tpl := mustTemplate("tab", Crop(screen, image.Rect(70, 60, 86, 72)))

	got := MatchBest(screen, []*Template{tpl}, 0.95, WithRegion(image.Rect(60, 50, 120, 90)))
	require.NotNil(t, got)
	assert.Equal(t, image.Pt(78, 66), got.Center)

	assert.Nil(t, MatchBest(screen, []*Template{tpl}, 0.95, WithRegion(image.Rect(0, 0, 40, 40))))
}

func TestMatchBestNeverBelowThreshold(t *testing.T) {
	screen := noise(80, 60, 3)
	unrelated := mustTemplate("other", noise(12, 12, 99))

	for _, th := range []float64{0.3, 0.5, 0.7, 0.9} {
		got := MatchBest(screen, []*Template{unrelated}, th)
		if got != nil {
			assert.GreaterOrEqual(t, got.Score, th)
		}
	}
}

func TestMatchBestPrefersHigherScoreRegardlessOfOrder(t *testing.T) {
	screen := noise(100, 80, 4)
	exact := mustTemplate("exact", Crop(screen, image.Rect(10, 10, 30, 30)))

	blurred := Crop(screen, image.Rect(50, 40, 70, 60))
	for i := 0; i < len(blurred.Pix); i += 4 * 7 {
		blurred.Pix[i], blurred.Pix[i+1], blurred.Pix[i+2] = 128, 128, 128
	}
	near := mustTemplate("near", blurred)

	a := MatchBest(screen, []*Template{near, exact}, 0.5)
	b := MatchBest(screen, []*Template{exact, near}, 0.5)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "exact", a.Template)
	assert.Equal(t, "exact", b.Template)
}

func TestMatchBestTieKeepsFirst(t *testing.T) {
	screen := noise(100, 80, 5)
	crop := Crop(screen, image.Rect(20, 20, 36, 36))
	first := mustTemplate("first", crop)
	second := mustTemplate("second", crop)

	got := MatchBest(screen, []*Template{first, second}, 0.9)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Template)

	got = MatchBest(screen, []*Template{second, first}, 0.9)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Template)
}

func TestMatchBestMaskedTemplate(t *testing.T) {
	screen := noise(100, 80, 6)
	tplImg := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if x < 4 || y < 4 || x >= 16 || y >= 16 {
				tplImg.SetNRGBA(x, y, color.NRGBA{255, 0, 255, 0})
				continue
			}
			c := screen.RGBAAt(30+x, 40+y)
			tplImg.SetNRGBA(x, y, color.NRGBA{c.R, c.G, c.B, 255})
		}
	}

	tpl := mustTemplate("masked", tplImg)
	require.True(t, tpl.Masked())

	got := MatchBest(screen, []*Template{tpl}, 0.95)
	require.NotNil(t, got)
	assert.Equal(t, image.Pt(40, 50), got.Center)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestMatchBestSkipsOversizedAndEmpty(t *testing.T) {
	screen := noise(40, 30, 7)
	big := mustTemplate("big", noise(50, 10, 8))

	var logged []string
	got := MatchBest(screen, []*Template{big, nil}, 0.5, WithLogger(func(s string) { logged = append(logged, s) }))
	assert.Nil(t, got)
	assert.Len(t, logged, 2)

	assert.Nil(t, MatchBest(image.NewRGBA(image.Rectangle{}), []*Template{big}, 0.5))
	assert.Nil(t, MatchBest(nil, []*Template{big}, 0.5))
}

func TestDecodeTemplateDetectsAlpha(t *testing.T) {
	opaque := noise(8, 8, 9)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, opaque))
	tpl, err := DecodeTemplate("opaque", buf.Bytes())
	require.NoError(t, err)
	assert.False(t, tpl.Masked())

	translucent := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	translucent.SetNRGBA(1, 1, color.NRGBA{10, 20, 30, 255})
	buf.Reset()
	require.NoError(t, png.Encode(&buf, translucent))
	tpl, err = DecodeTemplate("translucent", buf.Bytes())
	require.NoError(t, err)
	assert.True(t, tpl.Masked())

	_, err = DecodeTemplate("broken", []byte("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeScreenshot(t *testing.T) {
	_, err := DecodeScreenshot(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(16, 9, grass)))
	frame, err := DecodeScreenshot(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 9), frame.Rect)
	assert.Equal(t, grass, frame.RGBAAt(3, 3))
}
