package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/t31hub/t31hub/internal/config"
)

type redisPubSub struct {
	client *redis.Client
}

func makeRedisPubSub(ctx context.Context, cfg *config.Config) (PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &redisPubSub{client: client}, nil
}

func (ps *redisPubSub) Publish(topic string, message []byte) error {
	return ps.client.Publish(context.Background(), topic, message).Err()
}

func (ps *redisPubSub) Subscribe(topic string) Subscription {
	sub := ps.client.Subscribe(context.Background(), topic)
	ch := make(chan []byte, subscriberBuffer)
	go func() {
		for msg := range sub.Channel() {
			ch <- []byte(msg.Payload)
		}
		close(ch)
	}()
	return &redisSubscription{sub: sub, ch: ch}
}

func (ps *redisPubSub) Close() error {
	return ps.client.Close()
}

type redisSubscription struct {
	sub *redis.PubSub
	ch  chan []byte
}

func (s *redisSubscription) Close() error {
	return s.sub.Close()
}

func (s *redisSubscription) Channel() <-chan []byte {
	return s.ch
}
