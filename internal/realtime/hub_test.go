package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case e := <-sub.C:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	h.Start(context.Background())
	defer h.Stop()

	a, err := h.Subscribe()
	require.NoError(t, err)
	b, err := h.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, 2, h.ClientCount())

	h.Broadcast(NewOrderUpdated(OrderUpdate{OrderID: "o1", Status: "completed"}))

	for _, sub := range []*Subscriber{a, b} {
		e := receiveEvent(t, sub)
		assert.Equal(t, EventOrderUpdated, e.Type)
		require.NotNil(t, e.Order)
		assert.Equal(t, "o1", e.Order.OrderID)
		assert.NotZero(t, e.Timestamp)
	}
}

func TestHub_SlowSubscriberDropsEventsWithoutBlocking(t *testing.T) {
	h := NewHub(WithClientBuffer(1))
	h.Start(context.Background())
	defer h.Stop()

	slow, err := h.Subscribe()
	require.NoError(t, err)
	healthy, err := h.Subscribe()
	require.NoError(t, err)

	// Fill the slow subscriber's one-slot buffer, draining only the
	// healthy one. The second broadcast overflows slow and is dropped
	// for it alone.
	h.Broadcast(NewEvent(EventPing))
	assert.Equal(t, EventPing, receiveEvent(t, healthy).Type)

	h.Broadcast(NewOrderUpdated(OrderUpdate{OrderID: "o1"}))
	assert.Equal(t, EventOrderUpdated, receiveEvent(t, healthy).Type)

	assert.Equal(t, EventPing, receiveEvent(t, slow).Type)
	select {
	case e := <-slow.C:
		t.Fatalf("expected dropped event, got %s", e.Type)
	default:
	}
}

func TestHub_MaxClients(t *testing.T) {
	h := NewHub(WithMaxClients(2))
	h.Start(context.Background())
	defer h.Stop()

	_, err := h.Subscribe()
	require.NoError(t, err)
	second, err := h.Subscribe()
	require.NoError(t, err)

	_, err = h.Subscribe()
	require.ErrorIs(t, err, ErrMaxClients)

	// Freed capacity admits a new subscriber.
	h.Unsubscribe(second.ID)
	_, err = h.Subscribe()
	require.NoError(t, err)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	h.Start(context.Background())
	defer h.Stop()

	sub, err := h.Subscribe()
	require.NoError(t, err)

	h.Unsubscribe(sub.ID)
	assert.Equal(t, 0, h.ClientCount())

	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("Done not closed on unsubscribe")
	}

	// Unsubscribing twice is harmless.
	h.Unsubscribe(sub.ID)
}

func TestHub_Heartbeat(t *testing.T) {
	h := NewHub(WithHeartbeat(20 * time.Millisecond))
	h.Start(context.Background())
	defer h.Stop()

	sub, err := h.Subscribe()
	require.NoError(t, err)

	e := receiveEvent(t, sub)
	assert.Equal(t, EventPing, e.Type)
}

func TestHub_StopDisconnectsSubscribers(t *testing.T) {
	h := NewHub()
	h.Start(context.Background())

	sub, err := h.Subscribe()
	require.NoError(t, err)

	h.Stop()

	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("Done not closed on hub stop")
	}
	assert.Equal(t, 0, h.ClientCount())
}
