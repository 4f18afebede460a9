package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"StockStream/internal/model"
)

// RedisStore is a Store shared across processes through Redis.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{Client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (model.PriceSeries, bool, error) {
	data, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var s model.PriceSeries
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode cached series: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, series model.PriceSeries, ttl time.Duration) error {
	if series == nil {
		series = model.PriceSeries{}
	}
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	if err := r.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.Client.Close() }
