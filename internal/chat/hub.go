package chat

import (
	"sync"

	"github.com/skillswap/backend/internal/models"
)

const subscriberBuffer = 16

// Hub fans persisted messages out to live room subscribers in-process.
// Delivery is best-effort: a subscriber whose buffer is full misses the
// message rather than blocking the sender.
type Hub struct {
	mu    sync.Mutex
	rooms map[uint]map[chan models.Message]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[chan models.Message]struct{})}
}

func (h *Hub) Subscribe(roomID uint) chan models.Message {
	ch := make(chan models.Message, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[chan models.Message]struct{})
		h.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(roomID uint, ch chan models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, member := subs[ch]; !member {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) Broadcast(roomID uint, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.rooms[roomID] {
		select {
		case ch <- msg:
		default:
		}
	}
}
