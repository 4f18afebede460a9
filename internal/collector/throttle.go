package collector

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"StockStream/internal/model"
)

// Throttled wraps a QuoteSource, bounding the number of fetches in flight and
// optionally giving up on a fetch after Timeout. A fetch abandoned on timeout
// keeps running in the background and keeps its slot until the wrapped source
// returns.
type Throttled struct {
	Source  QuoteSource
	Sem     *semaphore.Weighted // nil means unbounded
	Timeout time.Duration
}

// NewThrottled returns src unchanged when neither limit is set.
func NewThrottled(src QuoteSource, maxInFlight int, timeout time.Duration) QuoteSource {
	if maxInFlight <= 0 && timeout <= 0 {
		return src
	}
	t := &Throttled{Source: src, Timeout: timeout}
	if maxInFlight > 0 {
		t.Sem = semaphore.NewWeighted(int64(maxInFlight))
	}
	return t
}

func (t *Throttled) Name() string { return t.Source.Name() }

func (t *Throttled) FetchCloses(ctx context.Context, symbol string, rng model.TimeRange) (model.PriceSeries, error) {
	if t.Sem != nil {
		if err := t.Sem.Acquire(ctx, 1); err != nil {
			return nil, fetchErr(t.Name(), symbol, err)
		}
	}
	release := func() {
		if t.Sem != nil {
			t.Sem.Release(1)
		}
	}
	if t.Timeout <= 0 {
		defer release()
		return t.Source.FetchCloses(ctx, symbol, rng)
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)

	type result struct {
		series model.PriceSeries
		err    error
	}
	ch := make(chan result, 1)
	// the slot is held until the wrapped source returns, even after a timeout
	go func() {
		defer cancel()
		defer release()
		s, err := t.Source.FetchCloses(ctx, symbol, rng)
		ch <- result{series: s, err: err}
	}()
	select {
	case r := <-ch:
		return r.series, r.err
	case <-ctx.Done():
		return nil, fetchErr(t.Name(), symbol, ctx.Err())
	}
}
