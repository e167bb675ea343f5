package cv

import "image"

// Rect is a calibrated screen rectangle in screenshot pixels
type Rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// NewRect creates a new rectangle
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Empty reports whether the rectangle covers no pixels
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the middle point of the rectangle
func (r Rect) Center() image.Point {
	return image.Pt(r.X+r.Width/2, r.Y+r.Height/2)
}

// ExtendUp grows the rectangle upward by n pixels without crossing y=0
func (r Rect) ExtendUp(n int) Rect {
	top := r.Y - n
	if top < 0 {
		top = 0
	}
	return Rect{X: r.X, Y: top, Width: r.Width, Height: r.Height + (r.Y - top)}
}

// Rectangle converts to an image.Rectangle
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Within reports whether the rectangle lies completely inside bounds
func (r Rect) Within(bounds image.Rectangle) bool {
	return !r.Empty() && r.Rectangle().In(bounds)
}
