package analytics

import (
	"math"
	"slices"
)

// CalculateMedianDiscrete returns the median of a list of day counts. Even
// lengths average the two middle values. values is left untouched.
func CalculateMedianDiscrete(values []int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// percent returns num/den as a percentage rounded to one decimal, or 0.
func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*1000) / 10
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
