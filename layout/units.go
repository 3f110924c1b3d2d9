package layout

import "math"

// This file defines unit helpers between output pixels and font points.
//
// Pages are drawn at one pixel per canvas unit. The canvas works in
// millimetres, so one pixel is handed to it as one millimetre and font
// sizes are converted from pixels to points with the mm↔pt factor.

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// PxToPt converts a pixel size (one canvas unit) into font points.
func PxToPt(px float64) float64 { return px * MmToPt }

// PtToPx converts font points back into pixels.
func PtToPx(pt float64) float64 { return pt * PtToMm }

// Ceil rounds a pixel measure up, ignoring float noise below 1e-9.
func Ceil(px float64) int {
	if r := math.Round(px); math.Abs(px-r) < 1e-9 {
		return int(r)
	}
	return int(math.Ceil(px))
}
