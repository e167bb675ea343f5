package cv

import (
	"fmt"
	"image"
	"math"
)

// MatchResult is the accepted best hit of a MatchBest call.
// Score is "higher is better" for both matching modes.
type MatchResult struct {
	Template string
	Center   image.Point
	Score    float64
}

// grayPlane is a grayscale copy of the search area with running sums
type grayPlane struct {
	origin image.Point
	w, h   int
	pix    []uint8
	sum    []float64 // integral image, (w+1)*(h+1)
	sqsum  []float64
}

func newGrayPlane(img *image.RGBA, area image.Rectangle) *grayPlane {
	g := &grayPlane{
		origin: area.Min,
		w:      area.Dx(),
		h:      area.Dy(),
		pix:    make([]uint8, area.Dx()*area.Dy()),
	}
	for y := 0; y < g.h; y++ {
		i := img.PixOffset(area.Min.X, area.Min.Y+y)
		for x := 0; x < g.w; x++ {
			g.pix[y*g.w+x] = grayLevel(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			i += 4
		}
	}

	stride := g.w + 1
	g.sum = make([]float64, stride*(g.h+1))
	g.sqsum = make([]float64, stride*(g.h+1))
	for y := 1; y <= g.h; y++ {
		var row, rowSq float64
		for x := 1; x <= g.w; x++ {
			v := float64(g.pix[(y-1)*g.w+x-1])
			row += v
			rowSq += v * v
			g.sum[y*stride+x] = g.sum[(y-1)*stride+x] + row
			g.sqsum[y*stride+x] = g.sqsum[(y-1)*stride+x] + rowSq
		}
	}
	return g
}

// windowSums returns the pixel sum and squared sum of a w x h window at (x, y)
func (g *grayPlane) windowSums(x, y, w, h int) (float64, float64) {
	stride := g.w + 1
	a, b := y*stride+x, y*stride+x+w
	c, d := (y+h)*stride+x, (y+h)*stride+x+w
	return g.sum[d] - g.sum[b] - g.sum[c] + g.sum[a],
		g.sqsum[d] - g.sqsum[b] - g.sqsum[c] + g.sqsum[a]
}

// MatchBest finds the highest-scoring accepted template location.
// Masked templates are accepted when their normalized squared error is at most
// 1-threshold, the rest when their normalized correlation reaches threshold.
// Ties keep the earlier template. Returns nil when nothing is accepted.
func MatchBest(screen *image.RGBA, templates []*Template, threshold float64, opts ...Option) *MatchResult {
	o := buildOptions(opts)
	if screen == nil || screen.Rect.Empty() {
		o.logf("match skipped: empty screenshot")
		return nil
	}

	area := screen.Rect
	if o.region != nil {
		area = o.region.Intersect(screen.Rect)
		if area.Empty() {
			o.logf(fmt.Sprintf("match skipped: region %v outside screenshot", *o.region))
			return nil
		}
	}

	plane := newGrayPlane(screen, area)

	var best *MatchResult
	for _, t := range templates {
		if t == nil || t.Width == 0 || t.Height == 0 {
			o.logf("template skipped: empty image")
			continue
		}
		if t.Width > plane.w || t.Height > plane.h {
			o.logf(fmt.Sprintf("template %s skipped: %v", t.Name, ErrTemplateTooLarge))
			continue
		}

		var loc image.Point
		var score float64
		var accepted bool
		if t.Masked() {
			var errVal float64
			loc, errVal = plane.bestMaskedSqDiff(t)
			score = 1 - errVal
			accepted = errVal <= 1-threshold
		} else {
			loc, score = plane.bestCCoeffNormed(t)
			accepted = score >= threshold
		}
		if !accepted {
			continue
		}

		if best == nil || score > best.Score {
			best = &MatchResult{
				Template: t.Name,
				Center:   plane.origin.Add(loc).Add(image.Pt(t.Width/2, t.Height/2)),
				Score:    score,
			}
		}
	}
	return best
}

// bestCCoeffNormed returns the first location with the maximum zero-mean
// normalized correlation.
func (g *grayPlane) bestCCoeffNormed(t *Template) (image.Point, float64) {
	n := float64(t.Width * t.Height)
	var tSum, tSq float64
	for _, v := range t.gray {
		f := float64(v)
		tSum += f
		tSq += f * f
	}
	tVar := tSq - tSum*tSum/n

	bestLoc, bestScore := image.Point{}, math.Inf(-1)
	for y := 0; y+t.Height <= g.h; y++ {
		for x := 0; x+t.Width <= g.w; x++ {
			wSum, wSq := g.windowSums(x, y, t.Width, t.Height)
			wVar := wSq - wSum*wSum/n

			var cross float64
			for ty := 0; ty < t.Height; ty++ {
				row := g.pix[(y+ty)*g.w+x : (y+ty)*g.w+x+t.Width]
				trow := t.gray[ty*t.Width : (ty+1)*t.Width]
				for tx, v := range trow {
					cross += float64(v) * float64(row[tx])
				}
			}
			num := cross - tSum*wSum/n

			score := normalizeScore(num, math.Sqrt(math.Max(tVar, 0)*math.Max(wVar, 0)), 0)
			if score > bestScore {
				bestScore, bestLoc = score, image.Pt(x, y)
			}
		}
	}
	return bestLoc, bestScore
}

// bestMaskedSqDiff returns the first location with the minimum masked
// normalized squared difference.
func (g *grayPlane) bestMaskedSqDiff(t *Template) (image.Point, float64) {
	type tap struct {
		dx, dy int
		v      float64
	}
	taps := make([]tap, 0, len(t.gray))
	var tSq float64
	for i, on := range t.mask {
		if !on {
			continue
		}
		v := float64(t.gray[i])
		taps = append(taps, tap{i % t.Width, i / t.Width, v})
		tSq += v * v
	}

	bestLoc, bestErr := image.Point{}, math.Inf(1)
	for y := 0; y+t.Height <= g.h; y++ {
		for x := 0; x+t.Width <= g.w; x++ {
			var diff, iSq float64
			for _, p := range taps {
				iv := float64(g.pix[(y+p.dy)*g.w+x+p.dx])
				d := p.v - iv
				diff += d * d
				iSq += iv * iv
			}
			errVal := normalizeScore(diff, math.Sqrt(tSq*iSq), 1)
			if errVal < bestErr {
				bestErr, bestLoc = errVal, image.Pt(x, y)
			}
		}
	}
	return bestLoc, bestErr
}

// normalizeScore divides num by denom, saturating near-degenerate windows to
// +-1 and fully degenerate ones to fallback.
func normalizeScore(num, denom, fallback float64) float64 {
	switch {
	case math.Abs(num) < denom:
		return num / denom
	case math.Abs(num) < denom*1.125:
		if num > 0 {
			return 1
		}
		return -1
	default:
		return fallback
	}
}
