package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/t31hub/t31hub/internal/config"
)

func makeInMemoryKV(_ *config.Config) (KV, error) {
	return inMemoryKV{
		kv: xsync.NewMapOf[string, kvValue](),
	}, nil
}

type kvValue struct {
	value []byte
	ttl   time.Time
}

type inMemoryKV struct {
	kv *xsync.MapOf[string, kvValue]
}

func (kv inMemoryKV) Has(_ context.Context, key string) (bool, error) {
	value, ok := kv.kv.Load(key)
	if !ok {
		return false, nil
	}
	if !value.ttl.IsZero() && value.ttl.Before(time.Now()) {
		kv.kv.Delete(key)
		return false, nil
	}
	return true, nil
}

func (kv inMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := kv.kv.Load(key)
	if !ok {
		return nil, fmt.Errorf("key %s not found", key)
	}
	if !value.ttl.IsZero() && value.ttl.Before(time.Now()) {
		kv.kv.Delete(key)
		return nil, fmt.Errorf("key %s has expired", key)
	}
	return value.value, nil
}

func (kv inMemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.kv.Store(key, kvValue{value: value})
	return nil
}

func (kv inMemoryKV) Delete(_ context.Context, key string) error {
	kv.kv.Delete(key)
	return nil
}

func (kv inMemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	value, ok := kv.kv.Load(key)
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	if ttl <= 0 {
		kv.kv.Delete(key)
		return nil
	}
	value.ttl = time.Now().Add(ttl)
	kv.kv.Store(key, value)
	return nil
}

func (kv inMemoryKV) Scan(_ context.Context, _ uint64, match string, _ int64) ([]string, uint64, error) {
	keys := make([]string, 0)
	kv.kv.Range(func(key string, value kvValue) bool {
		if !value.ttl.IsZero() && value.ttl.Before(time.Now()) {
			kv.kv.Delete(key)
			return true
		}
		if match == "" || match == key {
			keys = append(keys, key)
		}
		return true
	})
	return keys, 0, nil
}

func (kv inMemoryKV) Close() error {
	return nil
}
