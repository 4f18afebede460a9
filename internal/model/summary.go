package model

import "time"

// Statistics is derived once per series per cycle.
type Statistics struct {
	Min         float64
	Max         float64
	Last        float64
	AbsChange   float64
	PctChange   float64 // relative, last vs first
	TrailingSMA float64
	HasChange   bool
	HasSMA      bool
}

// ResultRecord is one summary row for one symbol in one cycle.
type ResultRecord struct {
	CycleID       string    `db:"cycle_id"`
	PeriodStart   time.Time `db:"-"`
	PeriodEnd     time.Time `db:"-"`
	Symbol        string    `db:"symbol"`
	LastPrice     float64   `db:"last_price"`
	PercentChange float64   `db:"pct_change"`
	Minimum       float64   `db:"min_price"`
	Maximum       float64   `db:"max_price"`
	TrailingSMA   float64   `db:"trailing_sma"`
}

// NewResultRecord fills a record from computed statistics. Missing change or
// SMA values are reported as zero.
func NewResultRecord(cycleID, symbol string, rng TimeRange, st Statistics) ResultRecord {
	return ResultRecord{
		CycleID:       cycleID,
		PeriodStart:   rng.Start,
		PeriodEnd:     rng.End,
		Symbol:        symbol,
		LastPrice:     st.Last,
		PercentChange: st.PctChange,
		Minimum:       st.Min,
		Maximum:       st.Max,
		TrailingSMA:   st.TrailingSMA,
	}
}
