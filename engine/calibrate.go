package engine

import "math"

const MaxValue = 127

const maxCurve = 10

// Normalize maps raw into 0..127 over the calibration range [min, max].
// min > max describes a reversed sensor. Readings outside the range are
// clamped to the nearest bound. A non-zero curve applies t^(10^(-curve/10)),
// positive values lifting the low end and negative values the high end.
// A NaN curve counts as linear.
func Normalize(raw, min, max int, curve float64) uint8 {
	if min == max {
		if raw > min {
			return MaxValue
		}
		return 0
	}
	lo, hi := min, max
	if lo > hi {
		lo, hi = hi, lo
	}
	if raw < lo {
		raw = lo
	}
	if raw > hi {
		raw = hi
	}
	t := float64(raw-min) / float64(max-min)
	if curve != 0 && !math.IsNaN(curve) {
		curve = math.Max(-maxCurve, math.Min(maxCurve, curve))
		t = math.Pow(t, math.Pow(10, -curve/10))
	}
	return uint8(math.Round(t * MaxValue))
}
