package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// ModAngDeg maps any angle into [0, 360).
func ModAngDeg(ang float64) float64 {
	ang = math.Mod(math.Mod(ang, 360)+360, 360)
	// math.Mod(-1e-18, 360)+360 rounds to exactly 360.
	if ang >= 360 {
		return 0
	}
	return ang
}

// AngleDiffDeg is the unsigned difference, in [0, 180], between two headings in [0, 360).
func AngleDiffDeg(a, b float64) float64 {
	return 180 - math.Abs(math.Abs(a-b)-180)
}

// SignedAngleDiffDeg returns the signed rotation in [-180, 180) that takes from onto to.
func SignedAngleDiffDeg(from, to float64) float64 {
	return ModAngDeg(to-from+180) - 180
}

// Sign returns -1, 0 or 1. Unlike math.Signbit, zero has its own sign.
func Sign(x float64) float64 {
	if x == 0 {
		return 0
	}
	if math.Signbit(x) {
		return -1.0
	}
	return 1.0
}

// Clamp limits value to [-limit, limit].
func Clamp(value, limit float64) float64 {
	value = math.Min(value, limit)
	value = math.Max(value, -1*limit)
	return value
}

// IsFinite is true when x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
