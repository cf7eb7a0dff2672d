package spatial

import (
	"github.com/teslashibe/go-soundscape/pkg/space"
)

// Scene is an ordered collection of sources in a common frame.
type Scene struct {
	sources []Source
}

// NewScene creates a scene from sources. The slice is copied.
func NewScene(sources ...Source) Scene {
	if len(sources) == 0 {
		return Scene{}
	}
	return Scene{sources: append([]Source(nil), sources...)}
}

// Sources returns a copy of the scene's sources, in order.
func (s Scene) Sources() []Source {
	return append([]Source(nil), s.sources...)
}

// Source returns the i-th source.
func (s Scene) Source(i int) Source {
	return s.sources[i]
}

// Len returns the number of sources.
func (s Scene) Len() int {
	return len(s.sources)
}

// IsEmpty reports whether the scene has no sources.
func (s Scene) IsEmpty() bool {
	return len(s.sources) == 0
}

// RelativeTo returns the scene as perceived through orientation.
// Source count and order are preserved.
func (s Scene) RelativeTo(orientation space.Orientation) Scene {
	return s.mapSources(func(src Source) Source {
		return src.PerceivedFrom(orientation)
	})
}

// Translated returns the scene with every source moved by -offset, so
// that offset becomes the new origin.
func (s Scene) Translated(offset space.Point3) Scene {
	return s.mapSources(func(src Source) Source {
		return src.Translated(offset)
	})
}

// ApproxEqual reports whether both scenes hold matching sources in the
// same order.
func (s Scene) ApproxEqual(other Scene, epsilon float64) bool {
	if len(s.sources) != len(other.sources) {
		return false
	}
	for i := range s.sources {
		if !s.sources[i].ApproxEqual(other.sources[i], epsilon) {
			return false
		}
	}
	return true
}

func (s Scene) mapSources(fn func(Source) Source) Scene {
	if len(s.sources) == 0 {
		return Scene{}
	}
	out := make([]Source, len(s.sources))
	for i, src := range s.sources {
		out[i] = fn(src)
	}
	return Scene{sources: out}
}
