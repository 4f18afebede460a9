package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"StockStream/internal/model"
)

// ErrDataUnavailable matches every failure a QuoteSource reports, whatever
// the provider-specific cause.
var ErrDataUnavailable = errors.New("data unavailable")

// QuoteSource fetches closing prices for one symbol over a time range.
// Implementations return closes sorted by ascending timestamp; an empty series
// with a nil error means the range holds no trading data.
//
//go:generate mockgen -package=pipeline -destination=../pipeline/mock_quote_source_test.go -source=fetcher.go QuoteSource
type QuoteSource interface {
	FetchCloses(ctx context.Context, symbol string, rng model.TimeRange) (model.PriceSeries, error)
	Name() string
}

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=collector_test -destination=mock_http_client_test.go -source=fetcher.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchError is returned by every QuoteSource on transport, auth or decode
// failure.
type FetchError struct {
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDataUnavailable) hold for any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrDataUnavailable }

func fetchErr(source, symbol string, err error) error {
	return &FetchError{Source: source, Symbol: symbol, Err: err}
}

// closesByTime sorts bars chronologically and extracts their closes.
func closesByTime(bars []model.OHLCV) model.PriceSeries {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	closes := make(model.PriceSeries, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
