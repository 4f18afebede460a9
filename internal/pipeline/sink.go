package pipeline

import (
	"context"
	"errors"
	"sync"

	"StockStream/internal/model"
)

// DefaultCapacity is the sink size used when none is configured.
const DefaultCapacity = 100

// ErrSinkClosed is returned by Publish once the sink has been closed.
var ErrSinkClosed = errors.New("result sink closed")

// Sink is a bounded multi-producer, single-consumer queue of records.
// Publish blocks while the sink is full; the consumer sees end-of-stream once
// Close has been called and every queued record has been received.
type Sink struct {
	ch chan model.ResultRecord

	mu     sync.RWMutex
	closed bool
}

// NewSink creates a sink holding at most capacity queued records.
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{ch: make(chan model.ResultRecord, capacity)}
}

// Publish enqueues rec, blocking while the sink is full.
func (s *Sink) Publish(rec model.ResultRecord) error {
	// Close waits for the write lock, so the channel stays open for the
	// duration of the send.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.ch <- rec
	return nil
}

// Close signals that no more records will be published. It is idempotent.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Consume returns the next record. ok is false at end-of-stream. A cancelled
// ctx returns its error without consuming anything.
func (s *Sink) Consume(ctx context.Context) (rec model.ResultRecord, ok bool, err error) {
	select {
	case rec, ok = <-s.ch:
		return rec, ok, nil
	case <-ctx.Done():
		return model.ResultRecord{}, false, ctx.Err()
	}
}

// Records exposes the sink for ranging; the channel is closed at end-of-stream.
func (s *Sink) Records() <-chan model.ResultRecord { return s.ch }

// Len reports the number of queued records.
func (s *Sink) Len() int { return len(s.ch) }

// Cap reports the sink capacity.
func (s *Sink) Cap() int { return cap(s.ch) }
