// Package pubsub broadcasts engine line-status transitions (modem role
// changes) from the engine goroutines that own them to the
// admin websocket feed, which has no other way to observe state it does not
// own.
//
// Adapted from the teacher's internal/pubsub package: same Publish/
// Subscribe/Close interface, in-memory and Redis-backed implementations
// chosen the same way internal/kv chooses its backend.
package pubsub

import (
	"context"

	"github.com/t31hub/t31hub/internal/config"
)

// LineStatusTopic is the single topic the admin websocket feed subscribes
// to; every engine line publishes its status transitions here rather than
// to a per-line topic, since the admin feed always wants every line.
const LineStatusTopic = "line-status"

// PubSub is a minimal publish/subscribe broker.
type PubSub interface {
	Publish(topic string, message []byte) error
	Subscribe(topic string) Subscription
	Close() error
}

// Subscription is one subscriber's view of a topic.
type Subscription interface {
	Close() error
	Channel() <-chan []byte
}

// MakePubSub builds a Redis-backed broker when cfg.Redis.Enabled, or an
// in-process one otherwise.
func MakePubSub(ctx context.Context, cfg *config.Config) (PubSub, error) {
	if cfg.Redis.Enabled {
		return makeRedisPubSub(ctx, cfg)
	}
	return makeInMemoryPubSub(), nil
}
