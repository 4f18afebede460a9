package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"StockStream/internal/model"
)

// Store keeps fetched series keyed by symbol and range.
type Store interface {
	Get(ctx context.Context, key string) (model.PriceSeries, bool, error)
	Set(ctx context.Context, key string, series model.PriceSeries, ttl time.Duration) error
}

// Cached serves repeated requests for the same symbol and range from a Store
// for TTL. Only successful fetches are stored; a failing store is bypassed.
type Cached struct {
	Source QuoteSource
	Store  Store
	TTL    time.Duration
}

func (c *Cached) Name() string { return c.Source.Name() }

func cacheKey(source, symbol string, rng model.TimeRange) string {
	return fmt.Sprintf("stockstream:%s:%s:%d:%d", source, symbol, rng.Start.Unix(), rng.End.Unix())
}

func (c *Cached) FetchCloses(ctx context.Context, symbol string, rng model.TimeRange) (model.PriceSeries, error) {
	if c.Store == nil || c.TTL <= 0 {
		return c.Source.FetchCloses(ctx, symbol, rng)
	}
	key := cacheKey(c.Source.Name(), symbol, rng)
	if s, ok, err := c.Store.Get(ctx, key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		return s, nil
	}

	s, err := c.Source.FetchCloses(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Set(ctx, key, s, c.TTL); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return s, nil
}

// entry stores a cached series with expiry.
type entry struct {
	expiresAt time.Time
	series    model.PriceSeries
}

// MemoryStore is an in-process Store. MaxItems caps the number of entries;
// expired entries are evicted first, then arbitrary ones.
type MemoryStore struct {
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
}

func NewMemoryStore(maxItems int) *MemoryStore {
	return &MemoryStore{MaxItems: maxItems, items: make(map[string]entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (model.PriceSeries, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	if !ok || !time.Now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return append(model.PriceSeries(nil), e.series...), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, series model.PriceSeries, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]entry)
	}
	m.items[key] = entry{expiresAt: time.Now().Add(ttl), series: append(model.PriceSeries(nil), series...)}

	if m.MaxItems > 0 && len(m.items) > m.MaxItems {
		now := time.Now()
		for k, v := range m.items {
			if len(m.items) <= m.MaxItems {
				break
			}
			if now.After(v.expiresAt) {
				delete(m.items, k)
			}
		}
		for k := range m.items {
			if len(m.items) <= m.MaxItems {
				break
			}
			if k != key {
				delete(m.items, k)
			}
		}
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
