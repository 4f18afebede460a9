package model

import (
	"errors"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds closing prices in ascending timestamp order.
type PriceSeries []float64

// Last returns the most recent close, or 0 for an empty series.
func (s PriceSeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// TimeRange is the query window of a fetch.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange builds a range ending now when end is zero.
func NewTimeRange(start, end time.Time) TimeRange {
	if end.IsZero() {
		end = time.Now()
	}
	return TimeRange{Start: start, End: end}
}

// Validate checks start <= end and that start is set.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() {
		return errors.New("range start is required")
	}
	if r.End.Before(r.Start) {
		return errors.New("range start must not be after range end")
	}
	return nil
}
