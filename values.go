package cadence

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Lerper is implemented by values that keyframe tracks can interpolate.
// Lerp returns the value a fraction t of the way from the receiver to to.
// Values with a non-linear space (rotations, perceptual colors) implement
// their own curve behind the same method.
type Lerper[T any] interface {
	Lerp(to T, t float32) T
}

// Float is a scalar usable with TypedTrack.
type Float float32

// Lerp implements Lerper.
func (f Float) Lerp(to Float, t float32) Float {
	return f + (to-f)*Float(t)
}

// Vec3 is a 3D vector for positions, scales and offsets.
type Vec3 struct {
	X, Y, Z float32
}

// Lerp implements Lerper component-wise.
func (v Vec3) Lerp(to Vec3, t float32) Vec3 {
	return Vec3{
		X: v.X + (to.X-v.X)*t,
		Y: v.Y + (to.Y-v.Y)*t,
		Z: v.Z + (to.Z-v.Z)*t,
	}
}

// ApproxEqual reports whether every component differs by less than eps.
func (v Vec3) ApproxEqual(o Vec3, eps float32) bool {
	return abs32(v.X-o.X) < eps && abs32(v.Y-o.Y) < eps && abs32(v.Z-o.Z) < eps
}

// Color is a straight (not premultiplied) RGBA color with components in [0, 1].
// Lerp blends in linear RGB; convert to LabColor for a perceptual blend.
type Color struct {
	R, G, B, A float32
}

// Lerp implements Lerper component-wise.
func (c Color) Lerp(to Color, t float32) Color {
	return Color{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
		A: c.A + (to.A-c.A)*t,
	}
}

// ApproxEqual reports whether every channel differs by less than eps.
func (c Color) ApproxEqual(o Color, eps float32) bool {
	return abs32(c.R-o.R) < eps && abs32(c.G-o.G) < eps &&
		abs32(c.B-o.B) < eps && abs32(c.A-o.A) < eps
}

// LabColor interpolates through CIE L*a*b* space, which avoids the muddy
// midpoints of a straight RGB blend. Alpha is blended linearly.
type LabColor Color

// Lerp implements Lerper.
func (c LabColor) Lerp(to LabColor, t float32) LabColor {
	a := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
	b := colorful.Color{R: float64(to.R), G: float64(to.G), B: float64(to.B)}
	m := a.BlendLab(b, float64(t)).Clamped()
	return LabColor{
		R: float32(m.R),
		G: float32(m.G),
		B: float32(m.B),
		A: c.A + (to.A-c.A)*t,
	}
}

// Quat is a unit quaternion rotation.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity is the no-rotation quaternion.
var QuatIdentity = Quat{W: 1}

// QuatFromAxisAngle returns the rotation of angle radians about axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	n := float32(math.Sqrt(float64(axis.X*axis.X + axis.Y*axis.Y + axis.Z*axis.Z)))
	if n == 0 {
		return QuatIdentity
	}
	s := float32(math.Sin(float64(angle)/2)) / n
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: float32(math.Cos(float64(angle) / 2))}
}

func (q Quat) dot(o Quat) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) normalized() Quat {
	n := float32(math.Sqrt(float64(q.dot(q))))
	if n == 0 {
		return QuatIdentity
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// Lerp implements Lerper with spherical linear interpolation along the
// shorter arc.
func (q Quat) Lerp(to Quat, t float32) Quat {
	d := q.dot(to)
	if d < 0 {
		to = Quat{-to.X, -to.Y, -to.Z, -to.W}
		d = -d
	}
	// Nearly parallel: sin(theta) underflows, a normalized lerp is exact enough.
	if d > 0.9995 {
		return Quat{
			X: q.X + (to.X-q.X)*t,
			Y: q.Y + (to.Y-q.Y)*t,
			Z: q.Z + (to.Z-q.Z)*t,
			W: q.W + (to.W-q.W)*t,
		}.normalized()
	}
	theta := math.Acos(float64(d))
	sinTheta := math.Sin(theta)
	wa := float32(math.Sin((1-float64(t))*theta) / sinTheta)
	wb := float32(math.Sin(float64(t)*theta) / sinTheta)
	return Quat{
		X: q.X*wa + to.X*wb,
		Y: q.Y*wa + to.Y*wb,
		Z: q.Z*wa + to.Z*wb,
		W: q.W*wa + to.W*wb,
	}
}

// ApproxEqual reports whether q and o describe the same rotation within eps.
func (q Quat) ApproxEqual(o Quat, eps float32) bool {
	return 1-abs32(q.dot(o)) < eps
}
