package session

import (
	"sync"

	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// Readiness collects the two pipeline signals, playing and initial scene
// captured, in either order, and opens the gate once both are seen.
// Signals arriving after the gate resolved are ignored.
type Readiness struct {
	gate *StartGate

	mu       sync.Mutex
	playing  bool
	captured bool
	scene    spatial.Scene
}

// NewReadiness creates a tracker of readiness signals for gate.
func NewReadiness(gate *StartGate) *Readiness {
	return &Readiness{gate: gate}
}

// MarkPlaying records that the media pipeline reached playing.
func (r *Readiness) MarkPlaying() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gate.State() != GatePending {
		return
	}
	r.playing = true
	r.maybeStartLocked()
}

// MarkSceneCaptured records the initial scene. Only the first capture is
// kept; it reports whether scene was accepted.
func (r *Readiness) MarkSceneCaptured(scene spatial.Scene) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.captured || r.gate.State() != GatePending {
		return false
	}
	r.captured = true
	r.scene = scene
	r.maybeStartLocked()
	return true
}

func (r *Readiness) maybeStartLocked() {
	if r.playing && r.captured {
		r.gate.Start()
	}
}

// Playing reports whether the playing signal was seen.
func (r *Readiness) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// Scene returns the captured initial scene.
func (r *Readiness) Scene() (spatial.Scene, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scene, r.captured
}
