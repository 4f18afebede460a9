package pipeline

import (
	"context"
	"log"

	"StockStream/internal/calculator"
	"StockStream/internal/collector"
	"StockStream/internal/model"
)

// Outcome is how a worker run ended.
type Outcome int

const (
	OutcomePublished Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePublished:
		return "published"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Worker fetches one symbol, computes its statistics and publishes a record.
// A failing or empty fetch publishes nothing and never affects other symbols.
type Worker struct {
	Source     collector.QuoteSource
	Sink       *Sink
	WindowSize int
}

// Run processes symbol over rng for the given cycle.
func (w *Worker) Run(ctx context.Context, cycleID, symbol string, rng model.TimeRange) Outcome {
	closes, err := w.Source.FetchCloses(ctx, symbol, rng)
	if err != nil {
		log.Printf("[WARN] %s: skipped this cycle: %v", symbol, err)
		return OutcomeFailed
	}

	st, ok := calculator.Summarize(closes, w.WindowSize)
	if !ok {
		return OutcomeEmpty
	}

	if err := w.Sink.Publish(model.NewResultRecord(cycleID, symbol, rng, st)); err != nil {
		log.Printf("[ERROR] %s: publish: %v", symbol, err)
		return OutcomeFailed
	}
	return OutcomePublished
}
