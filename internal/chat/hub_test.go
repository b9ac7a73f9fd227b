package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillswap/backend/internal/models"
)

func TestBroadcastReachesRoomSubscribers(t *testing.T) {
	hub := NewHub()
	ch1 := hub.Subscribe(1)
	ch2 := hub.Subscribe(1)
	other := hub.Subscribe(2)

	hub.Broadcast(1, models.Message{ChatroomID: 1, Content: "hi"})

	for _, ch := range []chan models.Message{ch1, ch2} {
		select {
		case msg := <-ch:
			require.Equal(t, "hi", msg.Content)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive message")
		}
	}

	select {
	case <-other:
		t.Fatal("message leaked into another room")
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe(1)
	hub.Unsubscribe(1, ch)

	_, open := <-ch
	require.False(t, open)

	// broadcasting after the last subscriber left must not panic
	hub.Broadcast(1, models.Message{ChatroomID: 1, Content: "late"})

	// double unsubscribe is a no-op
	hub.Unsubscribe(1, ch)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe(1)

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Broadcast(1, models.Message{ChatroomID: 1, Content: "m"})
	}

	require.Len(t, ch, subscriberBuffer)
}
