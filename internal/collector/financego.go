package collector

import (
	"context"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"StockStream/internal/model"
)

// FinanceGoFetcher implements QuoteSource on top of piquette/finance-go.
// The library does not take a context; cancellation is left to Throttled.
type FinanceGoFetcher struct{}

func NewFinanceGoFetcher() *FinanceGoFetcher { return &FinanceGoFetcher{} }

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchCloses(_ context.Context, symbol string, rng model.TimeRange) (model.PriceSeries, error) {
	start, end := rng.Start, rng.End
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	var raw []*finance.ChartBar
	for iter.Next() {
		raw = append(raw, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, fetchErr(f.Name(), symbol, err)
	}
	return closesByTime(barsFromChart(raw)), nil
}

func barsFromChart(raw []*finance.ChartBar) []model.OHLCV {
	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if b == nil {
			continue
		}
		c, _ := b.AdjClose.Float64()
		if c == 0 {
			c, _ = b.Close.Float64()
		}
		o, _ := b.Open.Float64()
		h, _ := b.High.Float64()
		l, _ := b.Low.Float64()
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(int64(b.Timestamp), 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: float64(b.Volume),
		})
	}
	return bars
}
