package agent

import "math"

// clamp01 bounds x to [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// clamp bounds x to [lo,hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// pull moves x toward target by fraction k.
func pull(x, target, k float64) float64 {
	return x + k*(target-x)
}

// TempDiscomfort maps a temperature in degrees Celsius to [0,1] discomfort:
// zero at the comfort point, saturating 20 degrees away from it.
func TempDiscomfort(celsius, comfort float64) float64 {
	return clamp01(math.Abs(celsius-comfort) / 20.0)
}

// sat damps a push as the variable approaches its bounds: 1.0 at the
// midpoint, floored at 0.1 at the edges so movement never stops entirely.
func sat(x float64) float64 {
	return 0.1 + 0.9*4*x*(1-x)
}

// edge is the complement of the midpoint parabola: 0 at the midpoint, 1 at
// the bounds. Scales noise up where the variable is pinned at an extreme.
func edge(x float64) float64 {
	return clamp01(1 - 4*x*(1-x))
}

// invU peaks at the midpoint and vanishes at both ends. Models moderate
// need-for-control as adaptive and both extremes as maladaptive.
func invU(x float64) float64 {
	return 4 * x * (1 - x)
}
