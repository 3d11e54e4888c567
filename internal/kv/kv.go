// Package kv provides a small key-value abstraction. cmd opens a store at
// startup and closes it at shutdown; no component reads or writes entries
// through it.
//
// Adapted from the teacher's internal/kv package: same interface shape,
// in-memory and Redis-backed implementations chosen by config.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/t31hub/t31hub/internal/config"
)

// KV is a minimal key-value store with TTL expiry and key scanning; it has
// no list operations.
type KV interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	Close() error
}

// MakeKV creates a new key-value store client, Redis-backed if
// config.Redis.Enabled, in-memory otherwise.
func MakeKV(ctx context.Context, cfg *config.Config) (KV, error) {
	if cfg.Redis.Enabled {
		redisKV, err := makeRedisKV(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis kv: %w", err)
		}
		return redisKV, nil
	}
	return makeInMemoryKV(cfg)
}
