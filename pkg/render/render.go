// Package render provides spatial.Renderer implementations.
//
// Available renderers:
//   - Recorder - records every pushed scene (tests, diagnostics)
//   - Hub      - forwards perceived scenes to WebSocket subscribers
//   - Log      - logs every perceived scene
//   - Multi    - fans a scene out to several renderers
//   - Safe     - adapts a sink whose push can fail
package render

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// FallibleRenderer is a sink whose push may fail.
type FallibleRenderer interface {
	RenderScene(scene spatial.Scene) error
}

// FallibleFunc adapts a function to FallibleRenderer.
type FallibleFunc func(scene spatial.Scene) error

// RenderScene calls f(scene).
func (f FallibleFunc) RenderScene(scene spatial.Scene) error {
	return f(scene)
}

type safeRenderer struct {
	inner  FallibleRenderer
	logger *slog.Logger
}

// Safe wraps a fallible sink so that push failures are logged and never
// reach the caller.
func Safe(inner FallibleRenderer, logger *slog.Logger) spatial.Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &safeRenderer{inner: inner, logger: logger}
}

func (r *safeRenderer) RenderScene(scene spatial.Scene) {
	if err := r.inner.RenderScene(scene); err != nil {
		r.logger.Warn("render push failed", "error", err, "sources", scene.Len())
	}
}

type multiRenderer []spatial.Renderer

// Multi pushes each scene to every renderer, in order.
func Multi(renderers ...spatial.Renderer) spatial.Renderer {
	return multiRenderer(append([]spatial.Renderer(nil), renderers...))
}

func (m multiRenderer) RenderScene(scene spatial.Scene) {
	for _, r := range m {
		r.RenderScene(scene)
	}
}

type logRenderer struct {
	logger *slog.Logger
	level  slog.Level
}

// Log returns a renderer that logs each perceived scene at level.
func Log(logger *slog.Logger, level slog.Level) spatial.Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logRenderer{logger: logger, level: level}
}

func (r *logRenderer) RenderScene(scene spatial.Scene) {
	r.logger.Log(context.Background(), r.level, "perceived scene",
		"sources", scene.Len(),
		"objects", scene.SpatialObjects(),
	)
}
