// Package units converts between the package format's native lengths
// (twips, half-points, EMU, eighths of a point) and presentation units.
package units

import (
	"math"
	"strconv"
)

const (
	// TwipsPerPoint is the number of twentieths-of-a-point in one point.
	TwipsPerPoint = 20
	// TwipsPerPixel assumes the 96 DPI CSS reference pixel (1440 twips per inch).
	TwipsPerPixel = 15.0
	// EMUPerPixel is the number of English Metric Units in one 96 DPI pixel.
	EMUPerPixel = 9525
	// EMUPerPoint is the number of English Metric Units in one point.
	EMUPerPoint = 12700
	// PixelsPerPoint is 96/72.
	PixelsPerPoint = 96.0 / 72.0
)

// TwipsToPoints converts twentieths-of-a-point to points.
func TwipsToPoints(twips int) float64 {
	return float64(twips) / TwipsPerPoint
}

// PointsToTwips converts points to the nearest twip.
func PointsToTwips(pt float64) int {
	return int(math.Round(pt * TwipsPerPoint))
}

// TwipsToPixels converts twips to pixels at 96 DPI.
func TwipsToPixels(twips int) float64 {
	return float64(twips) / TwipsPerPixel
}

// PixelsToTwips converts pixels to the nearest twip.
func PixelsToTwips(px float64) int {
	return int(math.Round(px * TwipsPerPixel))
}

// HalfPointsToPoints converts a font size in half-points to points.
func HalfPointsToPoints(hp int) float64 {
	return float64(hp) / 2
}

// PointsToHalfPoints converts points to the nearest half-point.
func PointsToHalfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// EMUToPixels converts English Metric Units to pixels.
func EMUToPixels(emu int64) float64 {
	return float64(emu) / EMUPerPixel
}

// PixelsToEMU converts pixels to English Metric Units.
func PixelsToEMU(px float64) int64 {
	return int64(math.Round(px * EMUPerPixel))
}

// EighthsToPoints converts a border width in eighths of a point to points.
func EighthsToPoints(eighths int) float64 {
	return float64(eighths) / 8
}

// EighthsToPixels converts a border width in eighths of a point to pixels.
func EighthsToPixels(eighths int) float64 {
	return EighthsToPoints(eighths) * PixelsPerPoint
}

// PixelsToEighths converts a pixel width to eighths of a point.
func PixelsToEighths(px float64) int {
	return int(math.Round(px / PixelsPerPoint * 8))
}

// ClampNonNegative returns v, or zero when v is negative or NaN.
func ClampNonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// The layout variants below are used wherever a length sizes something on
// screen. Malformed packages can carry negative values; those render as zero.

// TwipsToPointsLayout is TwipsToPoints clamped at zero.
func TwipsToPointsLayout(twips int) float64 {
	return ClampNonNegative(TwipsToPoints(twips))
}

// TwipsToPixelsLayout is TwipsToPixels clamped at zero.
func TwipsToPixelsLayout(twips int) float64 {
	return ClampNonNegative(TwipsToPixels(twips))
}

// EMUToPixelsLayout is EMUToPixels clamped at zero.
func EMUToPixelsLayout(emu int64) float64 {
	return ClampNonNegative(EMUToPixels(emu))
}

// EighthsToPixelsLayout is EighthsToPixels clamped at zero.
func EighthsToPixelsLayout(eighths int) float64 {
	return ClampNonNegative(EighthsToPixels(eighths))
}

// FormatNumber renders v with at most two decimals and no trailing zeros,
// the way lengths appear in CSS declarations.
func FormatNumber(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
