package cv

import (
	"image"

	"gocv.io/x/gocv"
)

// Region-search area bounds for name-tag sized blobs
const (
	MinRegionArea = 50.0
	MaxRegionArea = 5000.0
)

// openKernel is the 3x3 structuring element of the speckle-removing open
var openKernel = image.Pt(3, 3)

// FindColorRegions returns the bounding-box centres of band blobs whose
// external contour area lies in (MinRegionArea, MaxRegionArea].
func FindColorRegions(img *image.RGBA, band Band) []image.Point {
	if img == nil || img.Rect.Empty() {
		return nil
	}

	frame, err := NewHSVFrame(img, img.Rect)
	if err != nil {
		return nil
	}
	defer frame.Close()

	mask := frame.Mask(band)
	defer mask.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, openKernel)
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)

	contours := gocv.FindContours(opened, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var points []image.Point
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area <= MinRegionArea || area > MaxRegionArea {
			continue
		}
		r := gocv.BoundingRect(contour).Add(frame.origin)
		points = append(points, image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2))
	}
	return points
}
