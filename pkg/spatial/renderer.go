package spatial

// Renderer consumes perceived scenes and drives spatialized output.
//
// RenderScene is a synchronous push and must be fast. Sinks that can fail
// report failures out-of-band; see render.Safe.
type Renderer interface {
	RenderScene(scene Scene)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(scene Scene)

// RenderScene calls f(scene).
func (f RendererFunc) RenderScene(scene Scene) {
	f(scene)
}
