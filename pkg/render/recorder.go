package render

import (
	"sync"

	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// Recorder is a renderer that records every scene pushed to it.
type Recorder struct {
	mu     sync.Mutex
	scenes []spatial.Scene
	notify chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// RenderScene records scene.
func (r *Recorder) RenderScene(scene spatial.Scene) {
	r.mu.Lock()
	r.scenes = append(r.scenes, scene)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Count returns the number of recorded scenes.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scenes)
}

// Scenes returns a copy of the recorded scenes, oldest first.
func (r *Recorder) Scenes() []spatial.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]spatial.Scene(nil), r.scenes...)
}

// Last returns the most recent scene.
func (r *Recorder) Last() (spatial.Scene, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scenes) == 0 {
		return spatial.Scene{}, false
	}
	return r.scenes[len(r.scenes)-1], true
}

// Updated is signalled after each recorded scene. Signals coalesce.
func (r *Recorder) Updated() <-chan struct{} {
	return r.notify
}
