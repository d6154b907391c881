// Package fpcodec packs a bounded real value into one byte: a sign bit, a
// 4-bit exponent biased by 7 and a 3-bit mantissa. Magnitudes are clamped to
// [MinMagnitude, MaxMagnitude]. The codec is lossy by design.
package fpcodec

import "math"

// #region constants
const (
	MinMagnitude = 0.001
	MaxMagnitude = 10.0

	// MaxRelativeError bounds |RoundTripError| for magnitudes in
	// [MinBoundedMagnitude, MaxMagnitude] outside the lossy bands.
	MaxRelativeError    = 1.0 / 16
	MinBoundedMagnitude = 1.0 / 64

	bias         = 7
	maxBiased    = 15
	mantissaBits = 3
	mantissaMax  = 1<<mantissaBits - 1
	signBit      = 0x80

	zeroCode = 0
	minCode  = 1
)

// lossyBands straddle exponent boundaries where rounding the mantissa up
// would overflow into the clamp.
var lossyBands = [][2]float64{
	{0.48, 0.52},
	{1.93, 2.23},
	{7.75, 8.0},
}

// #endregion constants

// #region encode
// Encode quantizes v into an 8-bit code.
func Encode(v float64) uint8 {
	if v == 0 {
		return zeroCode
	}
	var sign uint8
	if v < 0 {
		sign = signBit
	}
	return sign | encodeMagnitude(math.Abs(v), true)
}

func encodeMagnitude(abs float64, correct bool) uint8 {
	abs = clamp(abs, MinMagnitude, MaxMagnitude)
	if abs == MinMagnitude {
		return minCode
	}
	code := quantize(abs)
	if correct && InLossyBand(abs) {
		// The nudged code is kept only when it decodes closer to abs.
		if nudged := quantize(nudge(abs)); magnitudeError(nudged, abs) < magnitudeError(code, abs) {
			return nudged
		}
	}
	return code
}

// quantize maps a clamped magnitude to its code. The mantissa is taken
// against the clamped exponent, so magnitudes up to 2^-7 floor to minCode.
func quantize(abs float64) uint8 {
	exp := int(math.Floor(math.Log2(abs)))
	biased := exp + bias
	if biased < 0 {
		biased = 0
	}
	if biased > maxBiased {
		biased = maxBiased
	}
	exp = biased - bias

	mantissa := abs/math.Ldexp(1, exp) - 1
	scaled := math.RoundToEven(mantissa * (1 << mantissaBits))
	if scaled < 0 {
		scaled = 0
	}
	if scaled > mantissaMax {
		scaled = mantissaMax
	}

	code := uint8(biased<<mantissaBits) | uint8(scaled)
	// A non-zero magnitude must not collapse onto the zero code.
	if code == zeroCode {
		return minCode
	}
	return code
}

func magnitudeError(code uint8, abs float64) float64 {
	return math.Abs(Decode(code)-abs) / abs
}

// #endregion encode

// #region decode
// Decode expands a code produced by Encode.
func Decode(c uint8) float64 {
	var v float64
	switch mag := c &^ signBit; mag {
	case zeroCode:
		return 0
	case minCode:
		v = MinMagnitude
	default:
		biased := int(mag >> mantissaBits)
		mantissa := float64(mag & mantissaMax)
		v = math.Ldexp(1+mantissa/(1<<mantissaBits), biased-bias)
	}
	if c&signBit != 0 {
		v = -v
	}
	return v
}

// #endregion decode

// #region round-trip
// RoundTrip is Decode(Encode(v)).
func RoundTrip(v float64) float64 {
	return Decode(Encode(v))
}

// RoundTripError is the relative error (decoded - v) / v, or 0 for v == 0.
func RoundTripError(v float64) float64 {
	if v == 0 {
		return 0
	}
	return (RoundTrip(v) - v) / v
}

// #endregion round-trip

// #region bands
// InLossyBand reports whether a magnitude falls in one of the corrected bands.
// Inside a band Encode tries a nudged magnitude and keeps whichever code
// decodes closer.
func InLossyBand(abs float64) bool {
	for _, b := range lossyBands {
		if abs > b[0] && abs < b[1] {
			return true
		}
	}
	return false
}

func nudge(abs float64) float64 {
	down := abs * 0.95
	up := abs * 1.04
	if math.Abs(down-abs) < math.Abs(up-abs) {
		return down
	}
	return up
}

// #endregion bands

// #region helpers
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampMagnitude clamps |v| into [MinMagnitude, MaxMagnitude], keeping the
// sign. Zero stays zero.
func ClampMagnitude(v float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Copysign(clamp(math.Abs(v), MinMagnitude, MaxMagnitude), v)
}

// #endregion helpers
