package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// subscriberBuffer is the per-subscriber queue length.
const subscriberBuffer = 64

// Subscriber receives broadcast messages on C until the hub drops it.
type Subscriber struct {
	C    <-chan Message
	send chan Message
}

// Hub maintains the set of active subscribers and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	subscribers map[*Subscriber]bool

	broadcast  chan Message
	register   chan *Subscriber
	unregister chan *Subscriber
	quit       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	latest  *Message
	running bool
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:        name,
		logger:      logger.With("hub", name),
		subscribers: make(map[*Subscriber]bool),
		broadcast:   make(chan Message, 256),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		quit:        make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns after Stop.
// This should be called in a goroutine
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		for sub := range h.subscribers {
			delete(h.subscribers, sub)
			close(sub.send)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-h.quit:
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			count := len(h.subscribers)
			if h.latest != nil {
				// Late subscribers start from the current state.
				sub.send <- *h.latest
			}
			h.mu.Unlock()
			h.logger.Debug("subscriber connected", "total", count)

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Debug("subscriber disconnected", "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			// Recorded here so a subscriber registered before this frame
			// is dispatched does not receive it twice.
			h.latest = &message
			for sub := range h.subscribers {
				select {
				case sub.send <- message:
				default:
					// Subscriber's buffer is full - drop it
					close(sub.send)
					delete(h.subscribers, sub)
					h.logger.Warn("dropped slow subscriber")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends the Run loop and closes every subscriber. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// Subscribe registers a new subscriber. The hub must be running.
func (h *Hub) Subscribe() *Subscriber {
	send := make(chan Message, subscriberBuffer)
	sub := &Subscriber{C: send, send: send}
	select {
	case h.register <- sub:
	case <-h.quit:
		close(send)
	}
	return sub
}

// Unsubscribe removes sub from the hub.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.quit:
	}
}

// Broadcast queues a message for all subscribers. Once the Run loop
// dispatches it, it becomes the latest state.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// Latest returns the most recently dispatched message.
func (h *Hub) Latest() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Message{}, false
	}
	return *h.latest, true
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Name returns the hub name.
func (h *Hub) Name() string {
	return h.name
}
