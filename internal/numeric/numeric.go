// Package numeric holds the shared statistics helpers used by the scorer,
// trend engine and forecaster.
package numeric

import "math"

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance is the population variance.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// CoefficientOfVariation returns stddev/mean. The second return is false
// when the mean is zero.
func CoefficientOfVariation(values []float64) (float64, bool) {
	mean := Mean(values)
	if mean == 0 {
		return 0, false
	}
	return StdDev(values) / mean, true
}

// Consistency scores how evenly values are distributed as 1 - CV, clamped at
// zero. Fewer than 3 data points yields the neutral default 0.5; a zero mean
// yields 0.
func Consistency(values []float64) float64 {
	if len(values) < 3 {
		return 0.5
	}
	cv, ok := CoefficientOfVariation(values)
	if !ok {
		return 0
	}
	return math.Max(0, 1-cv)
}

// LinearSlope returns the ordinary least-squares slope of values against
// their indices. Degenerate inputs return 0.
func LinearSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denominator := float64(n)*sumX2 - sumX*sumX
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denominator
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
