// Package soundscape binds an absolute scene, a listener and a renderer.
//
// A Soundscape keeps the renderer in sync with the listener: it renders
// once on construction and exactly once per listener update, always from
// the unchanged absolute scene.
package soundscape

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/teslashibe/go-soundscape/pkg/space"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// Soundscape is the stateful coordinator for one listener.
type Soundscape struct {
	logger *slog.Logger

	mu       sync.Mutex
	scene    spatial.Scene
	listener spatial.Listener
	renderer spatial.Renderer

	// last perceived scene pushed to the renderer
	perceived spatial.Scene
	renders   atomic.Int64
}

// Option configures a Soundscape.
type Option func(*Soundscape)

// WithLogger sets the logger used to report renderer failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Soundscape) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a soundscape and performs the first render pass before
// returning.
func New(scene spatial.Scene, listener spatial.Listener, renderer spatial.Renderer, opts ...Option) *Soundscape {
	s := &Soundscape{
		logger:   slog.Default(),
		scene:    scene,
		listener: listener,
		renderer: renderer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.renderLocked(context.Background())
	s.mu.Unlock()

	return s
}

// SetListener replaces the listener and renders the scene once from the
// new pose.
func (s *Soundscape) SetListener(listener spatial.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = listener
	s.renderLocked(context.Background())
}

// Update replaces the listener with f(current) and renders once. f runs
// under the soundscape lock, so no sample can land between reading and
// replacing the listener. f must not call back into s.
func (s *Soundscape) Update(f func(spatial.Listener) spatial.Listener) spatial.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = f(s.listener)
	s.renderLocked(context.Background())
	return s.listener
}

// SetOrientation turns the listener in place and renders once.
func (s *Soundscape) SetOrientation(orientation space.Orientation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = s.listener.WithOrientation(orientation)
	s.renderLocked(context.Background())
}

// Apply turns the listener to every orientation received on samples. It
// returns when samples is closed or ctx is done; the last rendered pose
// stays in effect.
func (s *Soundscape) Apply(ctx context.Context, samples <-chan space.Orientation) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o, ok := <-samples:
			if !ok {
				s.logger.Debug("orientation samples closed, keeping last pose")
				return nil
			}
			s.mu.Lock()
			s.listener = s.listener.WithOrientation(o)
			s.renderLocked(ctx)
			s.mu.Unlock()
		}
	}
}

// Scene returns the absolute scene.
func (s *Soundscape) Scene() spatial.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

// Listener returns the current listener.
func (s *Soundscape) Listener() spatial.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// PerceivedScene returns the scene last pushed to the renderer.
func (s *Soundscape) PerceivedScene() spatial.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perceived
}

// Renders returns the number of render passes performed so far.
func (s *Soundscape) Renders() int64 {
	return s.renders.Load()
}

// renderLocked recomputes the perceived scene and pushes it. s.mu must be
// held so the recompute and the push happen as one step.
func (s *Soundscape) renderLocked(ctx context.Context) {
	seq := s.renders.Add(1)

	_, span := tracer.Start(ctx, "render scene")
	defer span.End()
	span.SetAttributes(
		attribute.Int("soundscape.sources", s.scene.Len()),
		attribute.Int64("soundscape.render_seq", seq),
	)

	s.perceived = s.listener.PerceivedScene(s.scene)

	if err := s.push(s.perceived); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "renderer failed")
		s.logger.Error("renderer failed", "error", err, "render_seq", seq)
	}
}

// push hands the scene to the renderer. A panicking renderer is reported
// as an error so it never unwinds through the caller.
func (s *Soundscape) push(scene spatial.Scene) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()
	s.renderer.RenderScene(scene)
	return nil
}
