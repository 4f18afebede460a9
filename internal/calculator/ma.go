package calculator

import "errors"

// ErrInvalidWindow is returned when a moving-average window is not positive.
var ErrInvalidWindow = errors.New("window size must be positive")

// WindowedSMA returns the average of every full window of the given size,
// sliding by one, in series order. The result is empty when the series is
// shorter than the window.
func WindowedSMA(prices []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if len(prices) < window {
		return []float64{}, nil
	}
	out := make([]float64, 0, len(prices)-window+1)
	for i := window; i <= len(prices); i++ {
		// no running total: every window is summed on its own
		sum := 0.0
		for _, p := range prices[i-window : i] {
			sum += p
		}
		out = append(out, sum/float64(window))
	}
	return out, nil
}
