// Package spatial models a scene of point sound sources and the listener
// that perceives it.
//
// All types are immutable values: every transform returns a new value and
// never reorders sources, so a renderer may map source index to an audio
// channel.
package spatial

import (
	"github.com/teslashibe/go-soundscape/pkg/space"
)

// DistanceGain is the attenuation factor applied to a source by its
// distance from the listener. Renderers assume it is non-negative.
type DistanceGain float64

// DefaultDistanceGain leaves the source unattenuated.
const DefaultDistanceGain DistanceGain = 1.0

// Source is a point sound emitter.
type Source struct {
	position     space.Point3
	distanceGain DistanceGain
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithDistanceGain sets the distance gain of the source.
func WithDistanceGain(gain float64) SourceOption {
	return func(s *Source) {
		s.distanceGain = DistanceGain(gain)
	}
}

// NewSource creates a source at position with the default distance gain.
func NewSource(position space.Point3, opts ...SourceOption) Source {
	s := Source{
		position:     position,
		distanceGain: DefaultDistanceGain,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Position returns the source position.
func (s Source) Position() space.Point3 {
	return s.position
}

// DistanceGain returns the source distance gain.
func (s Source) DistanceGain() float64 {
	return float64(s.distanceGain)
}

// PerceivedFrom returns the source as seen through orientation. The
// distance gain is carried through unchanged.
func (s Source) PerceivedFrom(orientation space.Orientation) Source {
	return Source{
		position:     orientation.Rotate(s.position),
		distanceGain: s.distanceGain,
	}
}

// Translated returns the source moved by -offset.
func (s Source) Translated(offset space.Point3) Source {
	return Source{
		position:     s.position.Sub(offset),
		distanceGain: s.distanceGain,
	}
}

// ApproxEqual reports whether both sources match within epsilon.
func (s Source) ApproxEqual(other Source, epsilon float64) bool {
	d := s.distanceGain - other.distanceGain
	if d < 0 {
		d = -d
	}
	return s.position.ApproxEqualThreshold(other.position, epsilon) && float64(d) <= epsilon
}
