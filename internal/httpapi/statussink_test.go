package httpapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/fsconst"
	"github.com/t31hub/t31hub/internal/pubsub"
)

type fakePubSub struct {
	published []struct {
		topic   string
		message []byte
	}
}

func (f *fakePubSub) Publish(topic string, message []byte) error {
	f.published = append(f.published, struct {
		topic   string
		message []byte
	}{topic, message})
	return nil
}

func (f *fakePubSub) Subscribe(topic string) pubsub.Subscription { return nil }
func (f *fakePubSub) Close() error                               { return nil }

func TestStatusSinkPublishesLineStatusEvent(t *testing.T) {
	ps := &fakePubSub{}
	sink := NewStatusSink(ps, nil)

	sink.ModemStatusChanged(2, fsconst.ModemV17TX)

	require.Len(t, ps.published, 1)
	assert.Equal(t, pubsub.LineStatusTopic, ps.published[0].topic)

	var evt lineStatusEvent
	require.NoError(t, json.Unmarshal(ps.published[0].message, &evt))
	assert.Equal(t, 2, evt.Line)
	assert.Equal(t, "v17-tx", evt.Modem)
}
