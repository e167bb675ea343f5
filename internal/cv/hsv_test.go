package cv

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHSVFrameClipsAndOffsets(t *testing.T) {
	img := solid(40, 30, grass)
	paint(img, image.Rect(30, 20, 40, 30), red)

	frame, err := NewHSVFrame(img, image.Rect(25, 15, 90, 90))
	require.NoError(t, err)
	defer frame.Close()

	assert.Equal(t, image.Rect(25, 15, 40, 30), frame.Bounds())
	assert.True(t, Classify(frame.At(35, 25), BandRed))
	assert.False(t, Classify(frame.At(26, 16), BandRed))
	assert.Equal(t, HSV{}, frame.At(0, 0), "outside the frame reads black")
	assert.Equal(t, 100, frame.Count(BandRed))
}

func TestHSVFrameMaskUnionsBoxes(t *testing.T) {
	img := solid(20, 10, grass)
	paint(img, image.Rect(0, 0, 5, 10), red)
	paint(img, image.Rect(15, 0, 20, 10), crimson)

	frame, err := NewHSVFrame(img, img.Rect)
	require.NoError(t, err)
	defer frame.Close()

	mask := frame.Mask(BandRed)
	defer mask.Close()
	assert.Equal(t, 10, mask.Rows())
	assert.Equal(t, 20, mask.Cols())
	assert.Equal(t, 100, frame.Count(BandRed), "both sides of the hue wraparound count")
}

func TestHSVFrameRejectsEmptyRegion(t *testing.T) {
	_, err := NewHSVFrame(solid(10, 10, grass), image.Rect(20, 20, 30, 30))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = NewHSVFrame(nil, image.Rect(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidImage)
}
