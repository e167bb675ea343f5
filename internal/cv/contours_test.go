package cv

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindColorRegionsDropsSpeckles(t *testing.T) {
	img := solid(120, 120, grass)
	paint(img, image.Rect(10, 10, 12, 12), purple) // removed by the open
	paint(img, image.Rect(40, 40, 60, 60), purple)

	assert.Equal(t, []image.Point{{50, 50}}, FindColorRegions(img, BandPurple))
}

func TestFindColorRegionsIgnoresNestedBlobs(t *testing.T) {
	img := solid(200, 200, grass)
	paint(img, image.Rect(10, 10, 100, 100), purple)
	paint(img, image.Rect(20, 20, 90, 90), grass)
	paint(img, image.Rect(50, 50, 60, 60), purple) // island inside the hole

	// Only the outer ring is an external contour and its area is too large.
	assert.Empty(t, FindColorRegions(img, BandPurple))
}

func TestFindColorRegionsOffsetImage(t *testing.T) {
	img := solid(100, 100, grass)
	paint(img, image.Rect(60, 60, 80, 80), purple)
	sub := img.SubImage(image.Rect(50, 50, 100, 100)).(*image.RGBA)

	assert.Equal(t, []image.Point{{70, 70}}, FindColorRegions(sub, BandPurple))
}

func TestFindColorRegions(t *testing.T) {
	img := solid(300, 200, grass)
	paint(img, image.Rect(50, 50, 70, 70), purple)     // kept
	paint(img, image.Rect(150, 20, 155, 25), purple)   // area 16, too small
	paint(img, image.Rect(150, 100, 250, 180), purple) // area 7821, too large

	points := FindColorRegions(img, BandPurple)
	assert.Equal(t, []image.Point{{60, 60}}, points)
}

func TestFindColorRegionsRedWraparound(t *testing.T) {
	img := solid(200, 200, grass)
	paint(img, image.Rect(10, 10, 30, 30), red)
	paint(img, image.Rect(100, 100, 120, 130), crimson)

	points := FindColorRegions(img, BandRed)
	assert.ElementsMatch(t, []image.Point{{20, 20}, {110, 115}}, points)
	assert.Empty(t, FindColorRegions(img, BandPurple))
}

func TestFindColorRegionsEmpty(t *testing.T) {
	assert.Nil(t, FindColorRegions(nil, BandRed))
	assert.Nil(t, FindColorRegions(image.NewRGBA(image.Rectangle{}), BandRed))
}
