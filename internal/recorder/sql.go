package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"StockStream/internal/model"
)

// SQLRecorder persists summary rows to SQLite or PostgreSQL.
type SQLRecorder struct {
	db     *sqlx.DB
	driver string
	mu     sync.Mutex
	now    func() time.Time
}

// summaryRow is the stored shape of a ResultRecord; times are unix seconds.
type summaryRow struct {
	CycleID     string  `db:"cycle_id"`
	Symbol      string  `db:"symbol"`
	PeriodStart int64   `db:"period_start"`
	PeriodEnd   int64   `db:"period_end"`
	LastPrice   float64 `db:"last_price"`
	PctChange   float64 `db:"pct_change"`
	MinPrice    float64 `db:"min_price"`
	MaxPrice    float64 `db:"max_price"`
	TrailingSMA float64 `db:"trailing_sma"`
	RecordedAt  int64   `db:"recorded_at"`
}

func (r summaryRow) record() model.ResultRecord {
	return model.ResultRecord{
		CycleID:       r.CycleID,
		PeriodStart:   time.Unix(r.PeriodStart, 0).UTC(),
		PeriodEnd:     time.Unix(r.PeriodEnd, 0).UTC(),
		Symbol:        r.Symbol,
		LastPrice:     r.LastPrice,
		PercentChange: r.PctChange,
		Minimum:       r.MinPrice,
		Maximum:       r.MaxPrice,
		TrailingSMA:   r.TrailingSMA,
	}
}

// NewSQLRecorder opens (or creates) the database and runs migrations.
// driver is "sqlite" or "postgres".
func NewSQLRecorder(driver, dsn string) (*SQLRecorder, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// readers outside the process can query while rows are appended
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	r := &SQLRecorder{db: db, driver: driver, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] %s recorder opened", driver)
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.driver == "postgres" {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycle_summaries (
			` + id + `,
			cycle_id     TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			period_start BIGINT NOT NULL,
			period_end   BIGINT NOT NULL,
			last_price   DOUBLE PRECISION,
			pct_change   DOUBLE PRECISION,
			min_price    DOUBLE PRECISION,
			max_price    DOUBLE PRECISION,
			trailing_sma DOUBLE PRECISION,
			recorded_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_symbol ON cycle_summaries(symbol, period_end)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_cycle ON cycle_summaries(cycle_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSummary appends one row.
func (r *SQLRecorder) RecordSummary(ctx context.Context, rec model.ResultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := summaryRow{
		CycleID:     rec.CycleID,
		Symbol:      rec.Symbol,
		PeriodStart: rec.PeriodStart.Unix(),
		PeriodEnd:   rec.PeriodEnd.Unix(),
		LastPrice:   rec.LastPrice,
		PctChange:   rec.PercentChange,
		MinPrice:    rec.Minimum,
		MaxPrice:    rec.Maximum,
		TrailingSMA: rec.TrailingSMA,
		RecordedAt:  r.now().Unix(),
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO cycle_summaries
		(cycle_id, symbol, period_start, period_end,
		 last_price, pct_change, min_price, max_price, trailing_sma, recorded_at)
		VALUES (:cycle_id, :symbol, :period_start, :period_end,
		 :last_price, :pct_change, :min_price, :max_price, :trailing_sma, :recorded_at)`,
		row)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.Symbol, err)
	}
	return nil
}

// Latest returns the most recent row for symbol by period end, then insertion.
func (r *SQLRecorder) Latest(ctx context.Context, symbol string) (model.ResultRecord, error) {
	var row summaryRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT
		cycle_id, symbol, period_start, period_end,
		last_price, pct_change, min_price, max_price, trailing_sma, recorded_at
		FROM cycle_summaries WHERE symbol = ?
		ORDER BY period_end DESC, id DESC LIMIT 1`), symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ResultRecord{}, ErrNoRecord
	}
	if err != nil {
		return model.ResultRecord{}, fmt.Errorf("query %s: %w", symbol, err)
	}
	return row.record(), nil
}

// CountCycle returns how many rows a cycle stored.
func (r *SQLRecorder) CountCycle(ctx context.Context, cycleID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM cycle_summaries WHERE cycle_id = ?`), cycleID); err != nil {
		return 0, fmt.Errorf("count cycle %s: %w", cycleID, err)
	}
	return n, nil
}

func (r *SQLRecorder) Close() error {
	log.Printf("[INFO] closing %s recorder", r.driver)
	return r.db.Close()
}
