package stream

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// SceneProbe forwards the first non-empty scene seen at the renderer to
// Events and then deactivates.
type SceneProbe struct {
	events Events
	fired  atomic.Bool
}

// NewSceneProbe creates an active probe.
func NewSceneProbe(events Events) *SceneProbe {
	return &SceneProbe{events: events}
}

// Fire reports scene if it is the first non-empty one. It returns whether
// the scene was forwarded.
func (p *SceneProbe) Fire(scene spatial.Scene) bool {
	if scene.IsEmpty() {
		return false
	}
	if !p.fired.CompareAndSwap(false, true) {
		return false
	}
	p.events.SceneCaptured(scene)
	return true
}

// FireObjects decodes a JSON array of spatial objects and fires it.
func (p *SceneProbe) FireObjects(data []byte) (bool, error) {
	if !p.Active() {
		return false, nil
	}
	var objs []spatial.SpatialObject
	if err := json.Unmarshal(data, &objs); err != nil {
		return false, fmt.Errorf("decode spatial objects: %w", err)
	}
	scene, ok := spatial.SceneFromObjects(objs)
	if !ok {
		return false, nil
	}
	return p.Fire(scene), nil
}

// Active reports whether the probe is still waiting for a scene.
func (p *SceneProbe) Active() bool {
	return !p.fired.Load()
}
