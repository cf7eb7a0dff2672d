// Package hub fans perceived-scene frames out to dashboard subscribers.
// The hub remembers the last frame it delivered so that a dashboard
// connecting mid-session starts from the current scene.
package hub

// Message is one JSON-encoded frame.
type Message struct {
	Data []byte
}

// NewJSONMessage wraps an already encoded JSON frame.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
