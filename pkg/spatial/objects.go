package spatial

import (
	"github.com/teslashibe/go-soundscape/pkg/space"
)

// SpatialObject is the record form of a source, as exchanged with render
// backends, dashboards and configuration files.
type SpatialObject struct {
	X            float64 `json:"x" yaml:"x"`
	Y            float64 `json:"y" yaml:"y"`
	Z            float64 `json:"z" yaml:"z"`
	DistanceGain float64 `json:"distance-gain" yaml:"distance-gain"`
}

// Object returns the record form of the source.
func (s Source) Object() SpatialObject {
	return SpatialObject{
		X:            s.position.X(),
		Y:            s.position.Y(),
		Z:            s.position.Z(),
		DistanceGain: float64(s.distanceGain),
	}
}

// Source converts the record back into a source.
func (o SpatialObject) Source() Source {
	return NewSource(space.Point3{o.X, o.Y, o.Z}, WithDistanceGain(o.DistanceGain))
}

// SpatialObjects returns the record form of every source, in order.
// An empty scene yields an empty, non-nil slice.
func (s Scene) SpatialObjects() []SpatialObject {
	out := make([]SpatialObject, len(s.sources))
	for i, src := range s.sources {
		out[i] = src.Object()
	}
	return out
}

// SceneFromObjects builds a scene from records. It reports false when
// objs is empty: an empty array means no scene has been set yet.
func SceneFromObjects(objs []SpatialObject) (Scene, bool) {
	if len(objs) == 0 {
		return Scene{}, false
	}
	sources := make([]Source, len(objs))
	for i, o := range objs {
		sources[i] = o.Source()
	}
	return Scene{sources: sources}, true
}
