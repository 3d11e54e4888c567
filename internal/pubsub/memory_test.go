package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPubSubDeliversToSubscriber(t *testing.T) {
	ps := makeInMemoryPubSub()
	sub := ps.Subscribe(LineStatusTopic)
	defer sub.Close()

	require.NoError(t, ps.Publish(LineStatusTopic, []byte("hello")))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "hello", string(msg))
	default:
		require.Fail(t, "expected a message on the subscription channel")
	}
}

func TestInMemoryPubSubFanOutToMultipleSubscribers(t *testing.T) {
	ps := makeInMemoryPubSub()
	a := ps.Subscribe(LineStatusTopic)
	b := ps.Subscribe(LineStatusTopic)
	defer a.Close()
	defer b.Close()

	require.NoError(t, ps.Publish(LineStatusTopic, []byte("fanout")))

	for _, sub := range []Subscription{a, b} {
		select {
		case msg := <-sub.Channel():
			assert.Equal(t, "fanout", string(msg))
		default:
			require.Fail(t, "expected a message on each subscriber's channel")
		}
	}
}

func TestInMemoryPubSubIgnoresOtherTopics(t *testing.T) {
	ps := makeInMemoryPubSub()
	sub := ps.Subscribe("other-topic")
	defer sub.Close()

	require.NoError(t, ps.Publish(LineStatusTopic, []byte("hello")))

	select {
	case msg := <-sub.Channel():
		require.Failf(t, "unexpected message on unrelated topic", "%q", msg)
	default:
	}
}

func TestInMemoryPubSubDropsOnFullBuffer(t *testing.T) {
	ps := makeInMemoryPubSub()
	sub := ps.Subscribe(LineStatusTopic)
	defer sub.Close()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, ps.Publish(LineStatusTopic, []byte("x")))
	}

	count := 0
	for {
		select {
		case <-sub.Channel():
			count++
		default:
			assert.Equal(t, subscriberBuffer, count)
			return
		}
	}
}

func TestInMemorySubscriptionCloseRemovesFromFanout(t *testing.T) {
	ps := makeInMemoryPubSub().(*inMemoryPubSub)
	sub := ps.Subscribe(LineStatusTopic)
	require.NoError(t, sub.Close())

	ps.mu.Lock()
	remaining := len(ps.subs[LineStatusTopic])
	ps.mu.Unlock()
	assert.Equal(t, 0, remaining, "subscriber list should be empty after Close")

	// Publishing after the only subscriber closed must not panic or block.
	assert.NoError(t, ps.Publish(LineStatusTopic, []byte("after-close")))
}

func TestInMemoryPubSubCloseClosesAllChannels(t *testing.T) {
	ps := makeInMemoryPubSub()
	sub := ps.Subscribe(LineStatusTopic)

	require.NoError(t, ps.Close())

	_, ok := <-sub.Channel()
	assert.False(t, ok, "channel should be closed after PubSub.Close")
}
