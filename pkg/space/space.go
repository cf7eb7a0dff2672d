// Package space defines points and orientations in 3D space.
//
// Most definitions are thin wrappers around github.com/go-gl/mathgl/mgl64.
// The coordinate frame is right-handed and positive angles rotate
// counter-clockwise about their axis.
package space

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point3 is a point in 3D space.
type Point3 = mgl64.Vec3

// Axes of the scene frame.
var (
	AxisX = Point3{1, 0, 0}
	AxisY = Point3{0, 1, 0}
	AxisZ = Point3{0, 0, 1}
)

// Origin returns the origin of the scene frame.
func Origin() Point3 {
	return Point3{0, 0, 0}
}

// Orientation is a rotation in 3D space, stored as a unit quaternion.
// The zero value is not valid; use Identity or one of the constructors.
type Orientation struct {
	q mgl64.Quat
}

// Identity returns the orientation that performs no rotation.
func Identity() Orientation {
	return Orientation{q: mgl64.QuatIdent()}
}

// NewOrientation builds an orientation from quaternion components.
// The quaternion is normalized; a zero quaternion yields Identity.
func NewOrientation(w, x, y, z float64) Orientation {
	return FromQuat(mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}})
}

// FromQuat normalizes q and wraps it as an orientation.
func FromQuat(q mgl64.Quat) Orientation {
	return Orientation{q: q.Normalize()}
}

// FromAxisAngle returns a rotation of angle radians about axis.
func FromAxisAngle(axis Point3, angle float64) Orientation {
	if axis.Len() == 0 {
		return Identity()
	}
	return FromQuat(mgl64.QuatRotate(angle, axis.Normalize()))
}

// FromEuler builds an orientation from roll (X), pitch (Y) and yaw (Z)
// in radians. The rotations are applied roll first, then pitch, then yaw.
func FromEuler(roll, pitch, yaw float64) Orientation {
	q := mgl64.QuatRotate(yaw, AxisZ).
		Mul(mgl64.QuatRotate(pitch, AxisY)).
		Mul(mgl64.QuatRotate(roll, AxisX))
	return FromQuat(q)
}

// FromRightHanded converts a quaternion reported in a device frame whose
// y and z axes are swapped relative to the scene frame.
// Device attitude APIs such as CoreMotion report in that frame.
func FromRightHanded(w, x, y, z float64) Orientation {
	return NewOrientation(w, x, z, y)
}

// Quat returns the underlying unit quaternion.
func (o Orientation) Quat() mgl64.Quat {
	if o.q == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return o.q
}

// Components returns w, x, y, z.
func (o Orientation) Components() (w, x, y, z float64) {
	q := o.Quat()
	return q.W, q.V[0], q.V[1], q.V[2]
}

// Rotate applies the rotation to p.
func (o Orientation) Rotate(p Point3) Point3 {
	return o.Quat().Rotate(p)
}

// Inverse returns the opposite rotation. For a unit quaternion this is
// the conjugate.
func (o Orientation) Inverse() Orientation {
	return Orientation{q: o.Quat().Conjugate()}
}

// Compose returns the rotation that applies other first and then o.
func (o Orientation) Compose(other Orientation) Orientation {
	return FromQuat(o.Quat().Mul(other.Quat()))
}

// Angle returns the rotation angle in radians, in [0, π].
func (o Orientation) Angle() float64 {
	w := math.Abs(o.Quat().W)
	if w > 1 {
		w = 1
	}
	return 2 * math.Acos(w)
}

// ApproxEqual reports whether o and other describe the same rotation
// within epsilon. q and -q are treated as equal.
func (o Orientation) ApproxEqual(other Orientation, epsilon float64) bool {
	return 1-math.Abs(o.Quat().Dot(other.Quat())) <= epsilon
}

// Euler returns roll (X), pitch (Y) and yaw (Z) in radians, matching
// the order used by FromEuler.
func (o Orientation) Euler() (roll, pitch, yaw float64) {
	q := o.Quat()
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	switch {
	case sinp >= 1:
		pitch = math.Pi / 2
	case sinp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sinp)
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// Rotate applies o to p.
func Rotate(o Orientation, p Point3) Point3 {
	return o.Rotate(p)
}

// Inverse returns the inverse of o.
func Inverse(o Orientation) Orientation {
	return o.Inverse()
}

// Compose returns o1 applied after o2.
func Compose(o1, o2 Orientation) Orientation {
	return o1.Compose(o2)
}

// Degrees converts radians to degrees for logging/display.
func Degrees(radians float64) float64 {
	return mgl64.RadToDeg(radians)
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return mgl64.DegToRad(degrees)
}
