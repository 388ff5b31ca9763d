package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBus_FanOut(t *testing.T) {
	bus := NewInMemoryBus()
	first := bus.Subscribe(1)
	second := bus.Subscribe(1)

	err := bus.Publish(context.Background(), map[string]string{"type": "user.created"})
	require.NoError(t, err)

	for _, sub := range []<-chan []byte{first, second} {
		payload := <-sub
		var event map[string]string
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, "user.created", event["type"])
	}
}

func TestInMemoryBus_SlowSubscriberDrops(t *testing.T) {
	bus := NewInMemoryBus()
	sub := bus.Subscribe(1)

	require.NoError(t, bus.Publish(context.Background(), "first"))
	require.NoError(t, bus.Publish(context.Background(), "second"))

	// Buffer holds one event; the second publish is dropped, not blocked.
	assert.Len(t, sub, 1)

	var got string
	require.NoError(t, json.Unmarshal(<-sub, &got))
	assert.Equal(t, "first", got)
}

func TestInMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	assert.NoError(t, bus.Publish(context.Background(), "nobody listening"))
}
