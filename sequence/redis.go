package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "steward:invoice_seq:"

// Redis is a Sequencer backed by INCR on one key per period.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis sequencer. An empty prefix uses the default.
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// Next implements Sequencer.
func (r *Redis) Next(ctx context.Context, period string) (int64, error) {
	n, err := r.rdb.Incr(ctx, r.prefix+period).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence/redis: incr %s: %w", period, err)
	}
	return n, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// NewRedisFromURL parses a redis:// or rediss:// URL and connects.
func NewRedisFromURL(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("sequence/redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("sequence/redis: ping: %w", err)
	}
	return NewRedis(rdb, prefix), nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
