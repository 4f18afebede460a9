package calculator

import "math"

// Maximum returns the largest price. ok is false for an empty series.
func Maximum(prices []float64) (max float64, ok bool) {
	if len(prices) == 0 {
		return 0, false
	}
	max = math.Inf(-1)
	for _, p := range prices {
		if p > max {
			max = p
		}
	}
	return max, true
}

// Minimum returns the smallest price. ok is false for an empty series.
func Minimum(prices []float64) (min float64, ok bool) {
	if len(prices) == 0 {
		return 0, false
	}
	min = math.Inf(1)
	for _, p := range prices {
		if p < min {
			min = p
		}
	}
	return min, true
}

// PercentageChange returns last-first and (last-first)/first.
// ok is false with fewer than two prices or a zero first price.
func PercentageChange(prices []float64) (abs, rel float64, ok bool) {
	if len(prices) < 2 || prices[0] == 0 {
		return 0, 0, false
	}
	first, last := prices[0], prices[len(prices)-1]
	abs = last - first
	return abs, abs / first, true
}
