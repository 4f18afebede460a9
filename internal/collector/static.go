package collector

import (
	"context"
	"errors"
	"math"
	"time"

	"StockStream/internal/model"
)

// StaticFetcher returns controllable fixed data for development and demos.
// Symbols listed in Fail report ErrDataUnavailable, symbols mapped in Series
// return that series, every other symbol gets generated daily closes.
type StaticFetcher struct {
	Price  float64
	Series map[string]model.PriceSeries
	Fail   map[string]bool
}

func (m *StaticFetcher) Name() string { return "static" }

func (m *StaticFetcher) FetchCloses(_ context.Context, symbol string, rng model.TimeRange) (model.PriceSeries, error) {
	if m.Fail[symbol] {
		return nil, fetchErr(m.Name(), symbol, errStaticFailure)
	}
	if s, ok := m.Series[symbol]; ok {
		return append(model.PriceSeries(nil), s...), nil
	}
	return closesByTime(generateBars(m.basePrice(symbol), rng)), nil
}

var errStaticFailure = errors.New("configured to fail")

func (m *StaticFetcher) basePrice(symbol string) float64 {
	if m.Price > 0 {
		return m.Price
	}
	h := 0
	for _, r := range symbol {
		h = h*31 + int(r)
	}
	return 50 + float64(h%450)
}

// generateBars emits one bar per weekday in rng, newest first.
func generateBars(basePrice float64, rng model.TimeRange) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := rng.End; !d.Before(rng.Start); d = d.AddDate(0, 0, -1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/5))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
