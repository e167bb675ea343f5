package cv

import "image"

// HealthNotFound is returned when no bar is present or the scan is inconclusive
const HealthNotFound = -1.0

// Scanner tuning. These values reject specific false positives seen in play:
// dark terrain behind the bar, NPC names, and bars that start mid-rectangle.
const (
	redGapTolerance     = 5
	darkColumnRatio     = 0.65
	maxStartOffsetRatio = 0.15
	minRedPixels        = 10
	darkDensityMin      = 0.70
	darkContinuityMin   = 0.80
	maxBarVariance      = 2.5
	emptyBarPercent     = 0.1

	identityTop      = 28
	identityBottom   = 3
	identityStep     = 2
	identityMinScore = 5

	edgeSampleOffset  = 5
	boundaryDarkLimit = 3
	varianceStep      = 5
	varianceMinSample = 5
)

// ScanHealthBar returns the target's health percentage in [0.5,100], 0.1 for
// an emptied but present bar, or -1 when no bar is found. Boss bars skip the
// name identity check.
func ScanHealthBar(img *image.RGBA, cfg HealthBarConfig, isBoss bool) float64 {
	if img == nil || img.Rect.Empty() {
		return HealthNotFound
	}
	img = ToRGBA(img)
	bar := cfg.Rect()
	if !bar.Within(img.Rect) {
		return HealthNotFound
	}

	frame, err := NewHSVFrame(img, img.Rect)
	if err != nil {
		return HealthNotFound
	}
	defer frame.Close()

	s := scanColumns(frame, bar)

	firstX := s.firstRedX
	if firstX == -1 {
		firstX = s.firstDarkX
	}
	if firstX == -1 {
		return HealthNotFound
	}
	if float64(firstX-bar.X) > float64(bar.Width)*maxStartOffsetRatio {
		return HealthNotFound
	}

	if !isBoss && identityScore(frame, bar) < identityMinScore {
		return HealthNotFound
	}

	if s.lastRedX != -1 && s.totalRed > minRedPixels {
		pct := float64(s.lastRedX-bar.X) / float64(bar.Width) * 100
		return clamp(pct, 0.5, 100)
	}

	density := float64(s.totalDark) / float64(bar.Width*bar.Height)
	continuity := float64(s.maxDarkRun) / float64(bar.Width)
	if s.firstDarkX == -1 || density <= darkDensityMin || continuity <= darkContinuityMin {
		return HealthNotFound
	}
	if !emptyBarFramed(frame, bar, s) {
		return HealthNotFound
	}
	return emptyBarPercent
}

type columnScan struct {
	firstRedX, lastRedX, totalRed    int
	firstDarkX, totalDark, maxDarkRun int
}

func scanColumns(f *HSVFrame, bar Rect) columnScan {
	s := columnScan{firstRedX: -1, lastRedX: -1, firstDarkX: -1}
	missing, gap, run := 0, false, 0

	for x := bar.X; x < bar.X+bar.Width; x++ {
		colRed, colDark := 0, 0
		for y := bar.Y; y < bar.Y+bar.Height; y++ {
			p := f.At(x, y)
			if Classify(p, BandBarRed) {
				colRed++
			}
			if Classify(p, BandBarDark) {
				colDark++
			}
		}
		s.totalRed += colRed

		switch {
		case colRed > 0:
			if s.firstRedX == -1 {
				s.firstRedX = x
			}
			if !gap {
				s.lastRedX = x
				missing = 0
			}
		case s.firstRedX != -1:
			missing++
			if missing > redGapTolerance {
				gap = true
			}
		}

		if float64(colDark)/float64(bar.Height) > darkColumnRatio {
			if s.firstDarkX == -1 {
				s.firstDarkX = x
			}
			s.totalDark += colDark
			run++
			s.maxDarkRun = max(s.maxDarkRun, run)
		} else {
			run = 0
		}
	}
	return s
}

// identityScore samples the name band above the bar: pink or yellow text adds
// one, near-white text subtracts two.
func identityScore(f *HSVFrame, bar Rect) int {
	top := max(0, bar.Y-identityTop)
	bottom := max(0, bar.Y-identityBottom)
	score := 0
	for x := bar.X; x < bar.X+bar.Width; x += identityStep {
		for y := top; y < bottom; y += identityStep {
			if x >= f.Bounds().Max.X || y >= f.Bounds().Max.Y {
				continue
			}
			p := f.At(x, y)
			if Classify(p, BandIdentityPink) || Classify(p, BandTagYellow) {
				score++
			}
			if Classify(p, BandIdentityWhite) {
				score -= 2
			}
		}
	}
	return score
}

// emptyBarFramed separates a drained UI bar from a patch of dark scenery
func emptyBarFramed(f *HSVFrame, bar Rect, s columnScan) bool {
	rows, cols := f.Bounds().Max.Y, f.Bounds().Max.X
	midY := bar.Y + bar.Height/2

	// The bar must end where the rectangle ends.
	if rx := bar.X + bar.Width + edgeSampleOffset; rx < cols {
		p := f.At(rx, midY)
		if p.V < 35 && p.S < 15 {
			return false
		}
	}

	top := max(0, bar.Y-edgeSampleOffset)
	bottom := min(rows-1, bar.Y+bar.Height+edgeSampleOffset)
	dark := 0
	for _, x := range []int{bar.X + edgeSampleOffset, bar.X + bar.Width/2, bar.X + bar.Width - edgeSampleOffset} {
		if x >= cols {
			continue
		}
		if f.At(x, top).V < 35 {
			dark++
		}
		if f.At(x, bottom).V < 35 {
			dark++
		}
	}
	if dark >= boundaryDarkLimit {
		return false
	}

	var sum, sumSq float64
	n := 0
	for x := s.firstDarkX; x < s.firstDarkX+s.maxDarkRun; x += varianceStep {
		if x >= cols {
			break
		}
		v := float64(f.At(x, midY).V)
		sum += v
		sumSq += v * v
		n++
	}
	if n > varianceMinSample {
		avg := sum / float64(n)
		if sumSq/float64(n)-avg*avg > maxBarVariance {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
