package spatial

import (
	"github.com/teslashibe/go-soundscape/pkg/space"
)

// Listener is the observer's pose in the scene frame.
type Listener struct {
	location    space.Point3
	orientation space.Orientation
}

// NewListener creates a listener at the origin.
func NewListener(orientation space.Orientation) Listener {
	return Listener{
		location:    space.Origin(),
		orientation: orientation,
	}
}

// NewListenerAt creates a listener at location.
func NewListenerAt(location space.Point3, orientation space.Orientation) Listener {
	return Listener{
		location:    location,
		orientation: orientation,
	}
}

// Location returns the listener location.
func (l Listener) Location() space.Point3 {
	return l.location
}

// Orientation returns the listener orientation.
func (l Listener) Orientation() space.Orientation {
	return l.orientation
}

// WithOrientation returns a copy of the listener turned to orientation.
func (l Listener) WithOrientation(orientation space.Orientation) Listener {
	l.orientation = orientation
	return l
}

// WithLocation returns a copy of the listener moved to location.
func (l Listener) WithLocation(location space.Point3) Listener {
	l.location = location
	return l
}

// PerceivedScene expresses scene in the listener's own frame.
//
// Sources are first translated so the listener sits at the origin, then
// rotated by the inverse of the listener orientation: the orientation
// describes how the listener is turned within the scene, so undoing it
// yields what the listener hears.
func (l Listener) PerceivedScene(scene Scene) Scene {
	return scene.
		Translated(l.location).
		RelativeTo(l.orientation.Inverse())
}
