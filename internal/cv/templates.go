package cv

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// Template is a decoded reference image ready for matching.
// Templates carrying an alpha channel match with a mask, all others by correlation.
type Template struct {
	Name   string
	Width  int
	Height int
	gray   []uint8
	mask   []bool
}

// NewTemplate prepares a template from a decoded image
func NewTemplate(name string, img image.Image) (*Template, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: template %s is empty", ErrInvalidImage, name)
	}

	t := &Template{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		gray:   make([]uint8, b.Dx()*b.Dy()),
	}
	alpha := hasAlphaChannel(img)
	if alpha {
		t.mask = make([]bool, len(t.gray))
	}

	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := y*t.Width + x
			t.gray[i] = grayLevel(c.R, c.G, c.B)
			if alpha {
				t.mask[i] = c.A > 0
			}
		}
	}
	return t, nil
}

// DecodeTemplate decodes PNG (or any registered format) bytes into a template
func DecodeTemplate(name string, data []byte) (*Template, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode template %s: %v", ErrInvalidImage, name, err)
	}
	return NewTemplate(name, img)
}

// Masked reports whether the template carries transparency
func (t *Template) Masked() bool {
	return t.mask != nil
}

// Size returns the template dimensions
func (t *Template) Size() image.Point {
	return image.Pt(t.Width, t.Height)
}

// hasAlphaChannel follows the decoded pixel layout: the PNG decoder yields
// NRGBA variants only for images stored with an alpha channel.
func hasAlphaChannel(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// grayLevel is the fixed-point 0.299/0.587/0.114 luma used for all matching
func grayLevel(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 8192) >> 14)
}
