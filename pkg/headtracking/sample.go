package headtracking

import (
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

// Sample is the wire form of one orientation sample. A sample carries
// either a unit quaternion (w, x, y, z) or an Euler pose in degrees
// (roll, pitch, yaw) as published by IMU producers.
type Sample struct {
	W *float64 `json:"w,omitempty"`
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`

	Roll  *float64 `json:"roll,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
	Yaw   *float64 `json:"yaw,omitempty"`
}

// QuaternionSample returns the quaternion wire form of o.
func QuaternionSample(o space.Orientation) Sample {
	w, x, y, z := o.Components()
	return Sample{W: &w, X: &x, Y: &y, Z: &z}
}

// Orientation converts the sample. Missing Euler angles count as zero.
func (s Sample) Orientation() (space.Orientation, error) {
	if s.W != nil && s.X != nil && s.Y != nil && s.Z != nil {
		return space.NewOrientation(*s.W, *s.X, *s.Y, *s.Z), nil
	}
	if s.Roll == nil && s.Pitch == nil && s.Yaw == nil {
		return space.Orientation{}, ErrInvalidSample
	}
	return space.FromEuler(
		space.Radians(deref(s.Roll)),
		space.Radians(deref(s.Pitch)),
		space.Radians(deref(s.Yaw)),
	), nil
}

// DecodeSample parses a JSON sample payload.
func DecodeSample(data []byte) (space.Orientation, error) {
	var s Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return space.Orientation{}, fmt.Errorf("decode sample: %w", err)
	}
	return s.Orientation()
}

// decoder turns payloads into scene-frame orientations.
type decoder struct {
	rightHanded bool
}

func (d decoder) decode(data []byte) (space.Orientation, error) {
	o, err := DecodeSample(data)
	if err != nil {
		return o, err
	}
	if d.rightHanded {
		o = space.FromRightHanded(o.Components())
	}
	return o, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
