package recorder

import (
	"context"

	"StockStream/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSummary(_ context.Context, _ model.ResultRecord) error { return nil }
func (n *NoopRecorder) Latest(_ context.Context, _ string) (model.ResultRecord, error) {
	return model.ResultRecord{}, ErrNoRecord
}
func (n *NoopRecorder) Close() error { return nil }
