package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"StockStream/internal/collector"
	"StockStream/internal/model"
)

func testRange() model.TimeRange {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return model.TimeRange{Start: start, End: start.AddDate(0, 0, 14)}
}

func TestSink_NoLossWhenProducersExceedCapacity(t *testing.T) {
	t.Parallel()

	const capacity, producers = 3, 50
	sink := NewSink(capacity)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := sink.Publish(model.ResultRecord{Symbol: fmt.Sprintf("S%02d", i)}); err != nil {
				t.Errorf("publish S%02d: %v", i, err)
			}
		}(i)
	}
	go func() {
		wg.Wait()
		sink.Close()
	}()

	seen := make(map[string]int)
	for rec := range sink.Records() {
		require.LessOrEqual(t, sink.Len(), capacity)
		seen[rec.Symbol]++
	}
	require.Len(t, seen, producers)
	for sym, n := range seen {
		require.Equalf(t, 1, n, "symbol %s seen %d times", sym, n)
	}
}

func TestSink_PublishBlocksWhenFull(t *testing.T) {
	t.Parallel()

	sink := NewSink(1)
	require.NoError(t, sink.Publish(model.ResultRecord{Symbol: "A"}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sink.Publish(model.ResultRecord{Symbol: "B"})
	}()

	select {
	case <-done:
		t.Fatal("publish into a full sink must block")
	case <-time.After(50 * time.Millisecond):
	}

	rec, ok, err := sink.Consume(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "A", rec.Symbol)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish did not resume after space freed")
	}
}

func TestSink_CloseDrainThenEndOfStream(t *testing.T) {
	t.Parallel()

	sink := NewSink(4)
	require.Equal(t, 4, sink.Cap())
	require.NoError(t, sink.Publish(model.ResultRecord{Symbol: "A"}))
	sink.Close()
	sink.Close()

	require.ErrorIs(t, sink.Publish(model.ResultRecord{Symbol: "B"}), ErrSinkClosed)

	rec, ok, err := sink.Consume(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "A", rec.Symbol)

	_, ok, err = sink.Consume(t.Context())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSink_ConsumeHonoursContext(t *testing.T) {
	t.Parallel()

	sink := NewSink(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok, err := sink.Consume(ctx)
	require.False(t, ok)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSink_ConsumeWaitsForCloseOnEmptySink(t *testing.T) {
	t.Parallel()

	sink := NewSink(2)
	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, ok, err := sink.Consume(context.Background())
		done <- result{ok, err}
	}()

	select {
	case <-done:
		t.Fatal("consume on an empty open sink must block")
	case <-time.After(50 * time.Millisecond):
	}

	sink.Close()
	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.False(t, r.ok, "closed and drained sink reports end-of-stream")
	case <-time.After(time.Second):
		t.Fatal("consume did not return after close")
	}
}

func TestWorker_PublishesStatistics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockQuoteSource(ctrl)
	rng := testRange()
	src.EXPECT().FetchCloses(gomock.Any(), "AAPL", rng).Return(model.PriceSeries{100, 110, 90}, nil)

	sink := NewSink(1)
	w := &Worker{Source: src, Sink: sink, WindowSize: 2}

	require.Equal(t, OutcomePublished, w.Run(t.Context(), "cycle-1", "AAPL", rng))

	rec, ok, err := sink.Consume(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "cycle-1", rec.CycleID)
	require.Equal(t, "AAPL", rec.Symbol)
	require.Equal(t, rng.Start, rec.PeriodStart)
	require.Equal(t, rng.End, rec.PeriodEnd)
	require.Equal(t, 90.0, rec.LastPrice)
	require.Equal(t, 90.0, rec.Minimum)
	require.Equal(t, 110.0, rec.Maximum)
	require.Equal(t, 100.0, rec.TrailingSMA)
	require.InDelta(t, -0.10, rec.PercentChange, 1e-9)
}

func TestWorker_FailureAndEmptyPublishNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockQuoteSource(ctrl)
	rng := testRange()

	src.EXPECT().Name().Return("mock").AnyTimes()
	src.EXPECT().FetchCloses(gomock.Any(), "BADSYM", rng).
		Return(nil, &collector.FetchError{Source: "mock", Symbol: "BADSYM", Err: errors.New("401")})
	src.EXPECT().FetchCloses(gomock.Any(), "HOLIDAY", rng).Return(model.PriceSeries{}, nil)

	sink := NewSink(1)
	w := &Worker{Source: src, Sink: sink, WindowSize: 30}

	require.Equal(t, OutcomeFailed, w.Run(t.Context(), "c", "BADSYM", rng))
	require.Equal(t, OutcomeEmpty, w.Run(t.Context(), "c", "HOLIDAY", rng))
	require.Zero(t, sink.Len())
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "published", OutcomePublished.String())
	require.Equal(t, "empty", OutcomeEmpty.String())
	require.Equal(t, "failed", OutcomeFailed.String())
}
