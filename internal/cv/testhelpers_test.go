package cv

import (
	"image"
	"image/color"
	"math/rand"
)

var (
	grass   = color.RGBA{60, 120, 60, 255}
	purple  = color.RGBA{200, 0, 200, 255}
	yellow  = color.RGBA{230, 200, 0, 255}
	red     = color.RGBA{220, 20, 20, 255}
	crimson = color.RGBA{220, 20, 60, 255}
	dark    = color.RGBA{25, 25, 25, 255}
	black   = color.RGBA{0, 0, 0, 255}
	white   = color.RGBA{230, 230, 230, 255}
)

func colorGray(v uint8) color.RGBA {
	return color.RGBA{v, v, v, 255}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	paint(img, img.Rect, c)
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// noise fills img with seeded gray noise so every window is distinct
func noise(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		v := uint8(rng.Intn(256))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

func mustTemplate(name string, img image.Image) *Template {
	t, err := NewTemplate(name, img)
	if err != nil {
		panic(err)
	}
	return t
}
