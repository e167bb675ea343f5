package cv

import "image"

// Enemy signature scan window and per-band minimum counts
const (
	signatureWidth     = 180
	signatureHeight    = 250
	signaturePurpleMin = 10
	signatureYellowMin = 10
	signatureRedMin    = 50
)

// NameTagExtension is how far above the health bar the name tag is searched
const NameTagExtension = 25

// DefaultVitalMinPixels is the per-signal pixel count needed to call a target alive
const DefaultVitalMinPixels = 50

// HasEnemySignature reports a targeted enemy from the top-left target frame:
// purple or yellow name pixels above 10, or red bar pixels above 50.
func HasEnemySignature(img *image.RGBA) bool {
	if img == nil || img.Rect.Empty() {
		return false
	}
	roi := image.Rect(0, 0, min(signatureWidth, img.Rect.Dx()), min(signatureHeight, img.Rect.Dy())).
		Add(img.Rect.Min)

	frame, err := NewHSVFrame(img, roi)
	if err != nil {
		return false
	}
	defer frame.Close()

	return frame.Count(BandSignaturePurple) > signaturePurpleMin ||
		frame.Count(BandSignatureYellow) > signatureYellowMin ||
		frame.Count(BandSignatureRed) > signatureRedMin
}

// VitalSigns is the liveness verdict for the locked target
type VitalSigns struct {
	Alive        bool
	HasHealthBar bool
	HasNameTag   bool
	RedPixels    int
	YellowPixels int
	PurplePixels int
}

// CheckVitalSigns inspects the health bar rectangle extended upward over the
// name tag. Each signal needs at least minPixels pixels of its band.
func CheckVitalSigns(img *image.RGBA, bar Rect, minPixels int) VitalSigns {
	if img == nil || img.Rect.Empty() || bar.Empty() {
		return VitalSigns{}
	}
	roi := bar.ExtendUp(NameTagExtension).Rectangle().Intersect(img.Rect)
	if roi.Empty() {
		return VitalSigns{}
	}

	frame, err := NewHSVFrame(img, roi)
	if err != nil {
		return VitalSigns{}
	}
	defer frame.Close()

	vs := VitalSigns{
		RedPixels:    frame.Count(BandRed),
		YellowPixels: frame.Count(BandTagYellow),
		PurplePixels: frame.Count(BandTagPurple),
	}
	vs.HasHealthBar = vs.RedPixels >= minPixels
	vs.HasNameTag = vs.YellowPixels >= minPixels || vs.PurplePixels >= minPixels
	vs.Alive = vs.HasHealthBar || vs.HasNameTag
	return vs
}
