package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// HSVFrame is an 8-bit HSV copy of part of a screenshot, converted by OpenCV
// with the hue-halved convention. Close releases the native buffer.
type HSVFrame struct {
	mat    gocv.Mat
	pix    []byte
	origin image.Point
	width  int
	height int
}

// NewHSVFrame converts the part of img inside roi. The region is clipped to
// the image; an empty result is an error.
func NewHSVFrame(img *image.RGBA, roi image.Rectangle) (*HSVFrame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	roi = roi.Intersect(img.Rect)
	if roi.Empty() {
		return nil, fmt.Errorf("%w: region %v outside %v", ErrInvalidImage, roi, img.Rect)
	}

	bgr, err := gocv.ImageToMatRGB(Crop(img, roi))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer bgr.Close()

	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	return &HSVFrame{
		mat:    hsv,
		pix:    hsv.ToBytes(),
		origin: roi.Min,
		width:  roi.Dx(),
		height: roi.Dy(),
	}, nil
}

// Close releases the OpenCV matrix
func (f *HSVFrame) Close() error {
	return f.mat.Close()
}

// Bounds returns the covered area in screenshot coordinates
func (f *HSVFrame) Bounds() image.Rectangle {
	return image.Rectangle{Min: f.origin, Max: f.origin.Add(image.Pt(f.width, f.height))}
}

// At returns the pixel at screenshot coordinates (x, y); outside reads black
func (f *HSVFrame) At(x, y int) HSV {
	x, y = x-f.origin.X, y-f.origin.Y
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return HSV{}
	}
	i := (y*f.width + x) * 3
	return HSV{H: f.pix[i], S: f.pix[i+1], V: f.pix[i+2]}
}

// Mask returns the 8-bit inRange mask of the band, the union of its boxes.
// The caller closes the result.
func (f *HSVFrame) Mask(band Band) gocv.Mat {
	mask := gocv.Zeros(f.height, f.width, gocv.MatTypeCV8UC1)
	part := gocv.NewMat()
	defer part.Close()

	for _, r := range band.Descriptor().Ranges {
		lower := gocv.NewScalar(float64(r.Low.H), float64(r.Low.S), float64(r.Low.V), 0)
		upper := gocv.NewScalar(float64(r.High.H), float64(r.High.S), float64(r.High.V), 0)
		gocv.InRangeWithScalar(f.mat, lower, upper, &part)
		gocv.BitwiseOr(mask, part, &mask)
	}
	return mask
}

// Count returns the number of frame pixels inside the band
func (f *HSVFrame) Count(band Band) int {
	mask := f.Mask(band)
	defer mask.Close()
	return gocv.CountNonZero(mask)
}
