package calculator

import (
	"math"

	"StockStream/internal/model"
)

// Summarize computes all statistics for one series. ok is false when the
// series is empty. window must be positive. A change or average that
// overflows to a non-finite value is reported as absent.
func Summarize(prices model.PriceSeries, window int) (model.Statistics, bool) {
	max, ok := Maximum(prices)
	if !ok {
		return model.Statistics{}, false
	}
	min, _ := Minimum(prices)

	st := model.Statistics{Min: min, Max: max, Last: prices.Last()}
	if abs, rel, ok := PercentageChange(prices); ok && finite(abs) && finite(rel) {
		st.AbsChange, st.PctChange, st.HasChange = abs, rel, true
	}
	if sma, err := WindowedSMA(prices, window); err == nil && len(sma) > 0 && finite(sma[len(sma)-1]) {
		st.TrailingSMA, st.HasSMA = sma[len(sma)-1], true
	}
	return st, true
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }
