package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-soundscape/pkg/hub"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// SceneFrame is the payload broadcast for each perceived scene.
type SceneFrame struct {
	Seq     int64                   `json:"seq"`
	Objects []spatial.SpatialObject `json:"spatial-objects"`
}

// Hub forwards perceived scenes to hub subscribers as JSON SceneFrames.
type Hub struct {
	hub *hub.Hub
	seq atomic.Int64
}

// NewHub creates a renderer broadcasting on h.
func NewHub(h *hub.Hub) *Hub {
	return &Hub{hub: h}
}

// Push encodes and broadcasts scene. Callers on the render path should
// use the renderer returned by Renderer, which logs failures instead.
func (r *Hub) Push(scene spatial.Scene) error {
	data, err := json.Marshal(SceneFrame{Seq: r.seq.Add(1), Objects: scene.SpatialObjects()})
	if err != nil {
		return fmt.Errorf("encode scene frame: %w", err)
	}
	r.hub.Broadcast(hub.NewJSONMessage(data))
	return nil
}

// Renderer returns r as a spatial.Renderer that logs push failures.
func (r *Hub) Renderer(logger *slog.Logger) spatial.Renderer {
	return Safe(FallibleFunc(r.Push), logger)
}
