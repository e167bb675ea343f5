package cv

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInvalidImage is returned for empty or undecodable images
	ErrInvalidImage = errors.New("invalid image")
	// ErrTemplateTooLarge marks a template that does not fit in the search area
	ErrTemplateTooLarge = errors.New("template larger than search area")
)

// DecodeScreenshot turns raw capture bytes into an RGBA frame anchored at (0,0)
func DecodeScreenshot(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty capture", ErrInvalidImage)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode capture: %v", ErrInvalidImage, err)
	}
	frame := ToRGBA(img)
	if frame.Rect.Empty() {
		return nil, fmt.Errorf("%w: capture has no pixels", ErrInvalidImage)
	}
	return frame, nil
}

// ToRGBA copies img into an RGBA buffer whose bounds start at the origin
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

// Crop returns a copy of the part of img inside rect
func Crop(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Rect)
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Rect, img, rect.Min, draw.Src)
	return out
}
