package stream

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// LocalPipeline is an offline pipeline playing a preset scene. On Play it
// reports playing and captures its scene.
type LocalPipeline struct {
	scene  spatial.Scene
	events Events
	probe  *SceneProbe
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewLocalPipeline creates a pipeline for scene reporting to events.
func NewLocalPipeline(scene spatial.Scene, events Events, logger *slog.Logger) *LocalPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalPipeline{
		scene:  scene,
		events: events,
		probe:  NewSceneProbe(events),
		logger: logger.With("component", "stream.local"),
	}
}

// Play reports the pipeline as playing and captures the preset scene.
func (p *LocalPipeline) Play(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPipelineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Info("local pipeline playing", "sources", p.scene.Len())
	p.events.PipelinePlaying()
	if !p.probe.Fire(p.scene) {
		p.logger.Warn("local pipeline has no spatial objects; waiting for a scene")
	}
	return nil
}

// Capture reports a scene found at the renderer after Play, for pipelines
// whose preset scene was empty.
func (p *LocalPipeline) Capture(scene spatial.Scene) bool {
	return p.probe.Fire(scene)
}

// Close marks the pipeline closed.
func (p *LocalPipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
