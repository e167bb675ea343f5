package cv

import (
	"fmt"
	"image"
)

// HSV is a pixel in 8-bit HSV space: H in [0,180), S and V in [0,255]
type HSV struct {
	H, S, V uint8
}

// HSVRange is an inclusive low/high box in HSV space
type HSVRange struct {
	Low, High HSV
}

// Contains reports whether the pixel falls inside the box on all three channels
func (r HSVRange) Contains(p HSV) bool {
	return p.H >= r.Low.H && p.H <= r.High.H &&
		p.S >= r.Low.S && p.S <= r.High.S &&
		p.V >= r.Low.V && p.V <= r.High.V
}

// ColorBand is a labelled union of HSV boxes
type ColorBand struct {
	Label  string
	Ranges []HSVRange
}

// Contains reports whether any box of the band holds the pixel
func (c ColorBand) Contains(p HSV) bool {
	for _, r := range c.Ranges {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Band enumerates the fixed color bands the detectors use
type Band int

const (
	// BandPurple is the enemy name-tag band used for region search
	BandPurple Band = iota
	// BandRed is the health red band, split across the hue wraparound
	BandRed
	// BandTagYellow is the faction name-tag band
	BandTagYellow
	// BandTagPurple is the enemy name-tag band with relaxed saturation
	BandTagPurple
	// BandSignaturePurple, BandSignatureYellow and BandSignatureRed drive HasEnemySignature
	BandSignaturePurple
	BandSignatureYellow
	BandSignatureRed
	// BandBarRed is a filled health bar column pixel
	BandBarRed
	// BandBarDark is the flat grey background of an emptied health bar
	BandBarDark
	// BandIdentityPink is enemy player name text above a health bar
	BandIdentityPink
	// BandIdentityWhite is NPC name text
	BandIdentityWhite
)

func hsvBox(h1, s1, v1, h2, s2, v2 uint8) HSVRange {
	return HSVRange{Low: HSV{h1, s1, v1}, High: HSV{h2, s2, v2}}
}

var bandTable = map[Band]ColorBand{
	BandPurple:          {"purple", []HSVRange{hsvBox(140, 100, 100, 170, 255, 255)}},
	BandRed:             {"red", []HSVRange{hsvBox(0, 100, 100, 10, 255, 255), hsvBox(160, 100, 100, 180, 255, 255)}},
	BandTagYellow:       {"tag-yellow", []HSVRange{hsvBox(20, 100, 100, 35, 255, 255)}},
	BandTagPurple:       {"tag-purple", []HSVRange{hsvBox(140, 50, 50, 170, 255, 255)}},
	BandSignaturePurple: {"signature-purple", []HSVRange{hsvBox(130, 50, 50, 170, 255, 255)}},
	BandSignatureYellow: {"signature-yellow", []HSVRange{hsvBox(15, 80, 80, 40, 255, 255)}},
	BandSignatureRed:    {"signature-red", []HSVRange{hsvBox(0, 100, 80, 10, 255, 255), hsvBox(170, 100, 80, 180, 255, 255)}},
	BandBarRed:          {"bar-red", []HSVRange{hsvBox(0, 70, 40, 10, 255, 255), hsvBox(160, 70, 40, 180, 255, 255)}},
	BandBarDark:         {"bar-dark", []HSVRange{hsvBox(0, 0, 8, 180, 14, 34)}},
	BandIdentityPink:    {"identity-pink", []HSVRange{hsvBox(140, 60, 60, 178, 255, 255)}},
	BandIdentityWhite:   {"identity-white", []HSVRange{hsvBox(0, 0, 151, 180, 29, 255)}},
}

// Descriptor returns the HSV boxes behind the band
func (b Band) Descriptor() ColorBand {
	return bandTable[b]
}

func (b Band) String() string {
	if d, ok := bandTable[b]; ok {
		return d.Label
	}
	return fmt.Sprintf("band(%d)", int(b))
}

// Classify reports whether the pixel belongs to the band
func Classify(p HSV, band Band) bool {
	return bandTable[band].Contains(p)
}

// CountBand counts pixels of the band inside rect, clipped to the image
func CountBand(img *image.RGBA, rect image.Rectangle, band Band) int {
	frame, err := NewHSVFrame(img, rect)
	if err != nil {
		return 0
	}
	defer frame.Close()
	return frame.Count(band)
}
