package kv

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/t31hub/t31hub/internal/config"
)

const (
	connsPerCPU = 10
	maxIdleTime = 10 * time.Minute
)

type redisClientKV struct {
	client *redis.Client
}

func makeRedisKV(ctx context.Context, cfg *config.Config) (KV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		PoolFIFO:        true,
		PoolSize:        runtime.GOMAXPROCS(0) * connsPerCPU,
		MinIdleConns:    runtime.GOMAXPROCS(0),
		ConnMaxIdleTime: maxIdleTime,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return redisClientKV{client: client}, nil
}

func (kv redisClientKV) Has(ctx context.Context, key string) (bool, error) {
	n, err := kv.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (kv redisClientKV) Get(ctx context.Context, key string) ([]byte, error) {
	return kv.client.Get(ctx, key).Bytes()
}

func (kv redisClientKV) Set(ctx context.Context, key string, value []byte) error {
	return kv.client.Set(ctx, key, value, 0).Err()
}

func (kv redisClientKV) Delete(ctx context.Context, key string) error {
	return kv.client.Del(ctx, key).Err()
}

func (kv redisClientKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return kv.client.Del(ctx, key).Err()
	}
	return kv.client.Expire(ctx, key, ttl).Err()
}

func (kv redisClientKV) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	keys, next, err := kv.client.Scan(ctx, cursor, match, count).Result()
	if err != nil {
		return nil, 0, err
	}
	return keys, next, nil
}

func (kv redisClientKV) Close() error {
	return kv.client.Close()
}
