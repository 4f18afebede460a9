package recorder

import (
	"context"
	"errors"

	"StockStream/internal/model"
)

// ErrNoRecord is returned by Latest when nothing was stored for a symbol.
var ErrNoRecord = errors.New("no record")

// Recorder persists emitted summary rows for later analysis.
type Recorder interface {
	RecordSummary(ctx context.Context, rec model.ResultRecord) error
	Latest(ctx context.Context, symbol string) (model.ResultRecord, error)
	Close() error
}
