// Package headtracking provides head-orientation sensors for the listener.
//
// This package supports multiple backends:
//   - MQTT - subscribes to an orientation topic published by an IMU producer
//   - WebSocket - reads an orientation feed from a WebSocket endpoint
//   - Mock - scripted or synthetic samples for tests and offline demos
//
// Every backend implements HeadTracker. Start may block until the sensor is
// ready; Stop is safe to call concurrently with a blocked Start and unblocks
// it.
package headtracking

import (
	"sync"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

// HeadTracker is a sensor producing listener orientations.
type HeadTracker interface {
	// Start begins motion updates. It may block until the sensor is
	// running and returns ErrStopped if Stop is called first.
	Start() error

	// Poll returns the most recent sample not yet returned by Poll.
	// It never blocks.
	Poll() (space.Orientation, bool)

	// Stop ends motion updates. It is safe to call Stop multiple times
	// and while Start is blocked.
	Stop() error

	// Done is closed when the tracker stops delivering samples, either
	// because it was stopped or because the sensor disconnected.
	Done() <-chan struct{}

	// Name returns the backend name (e.g., "mqtt", "websocket", "mock").
	Name() string
}

// latest holds the newest unread sample.
type latest struct {
	mu     sync.Mutex
	sample space.Orientation
	fresh  bool
}

func (l *latest) put(o space.Orientation) {
	l.mu.Lock()
	l.sample = o
	l.fresh = true
	l.mu.Unlock()
}

func (l *latest) take() (space.Orientation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.fresh {
		return space.Orientation{}, false
	}
	l.fresh = false
	return l.sample, true
}

// doneSignal is a channel closed at most once.
type doneSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newDoneSignal() *doneSignal {
	return &doneSignal{ch: make(chan struct{})}
}

func (d *doneSignal) close() {
	d.once.Do(func() { close(d.ch) })
}

func (d *doneSignal) closed() bool {
	select {
	case <-d.ch:
		return true
	default:
		return false
	}
}
