package utils

import "math"

// Sign returns -1, 0 or 1 depending on the sign of x.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// AbsInt64 returns the absolute value of n.
func AbsInt64(n int64) int64 {
	if n < 0 {
		return -1 * n
	}
	return n
}

// ModAngDeg maps ang into [0, 360).
func ModAngDeg(ang float64) float64 {
	return math.Mod(math.Mod(ang, 360)+360, 360)
}

