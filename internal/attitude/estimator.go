// Package attitude turns raw gravity and magnetic readings into rotation
// matrices and keeps the matrices the renderer reads each frame.
package attitude

import (
	gomath "math"

	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Orientation holds Euler angles in radians.
type Orientation struct {
	Azimuth float32 // rotation about -Z, 0 when the device faces magnetic north
	Pitch   float32 // rotation about X
	Roll    float32 // rotation about Y
}

// Degrees returns the angles converted to degrees.
func (o Orientation) Degrees() (azimuth, pitch, roll float32) {
	const k = 180 / gomath.Pi
	return o.Azimuth * k, o.Pitch * k, o.Roll * k
}

// Estimate builds the world-to-device rotation for a gravity and a magnetic
// field sample, both in device coordinates. The matrix columns are the east,
// north and up axes of the world expressed in the device frame.
//
// ok is false when either sample is missing. Degenerate input (free fall, a
// field parallel to gravity) is not detected and yields zero columns.
//
// invertAxes remaps a sensor mounted with its X and Y axes swapped. Z is
// negated with the swap so the remap stays a proper rotation.
func Estimate(gravity, magnetic *math.Vec3, invertAxes bool) (m math.Mat4, o Orientation, ok bool) {
	if gravity == nil || magnetic == nil {
		return math.Identity(), Orientation{}, false
	}

	g, e := *gravity, *magnetic
	if invertAxes {
		g = remap(g)
		e = remap(e)
	}

	east := e.Cross(g).Normalize()
	up := g.Normalize()
	north := up.Cross(east)

	m = math.FromColumns(east, north, up)
	return m, orientationOf(m), true
}

func remap(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.Y, Y: v.X, Z: -v.Z}
}

func orientationOf(m math.Mat4) Orientation {
	return Orientation{
		Azimuth: float32(gomath.Atan2(float64(m[1]), float64(m[5]))),
		Pitch:   float32(gomath.Asin(clamp(-float64(m[9])))),
		Roll:    float32(gomath.Atan2(-float64(m[8]), float64(m[10]))),
	}
}

// clamp keeps asin in its domain when rounding pushes |x| past 1.
func clamp(x float64) float64 {
	return gomath.Max(-1, gomath.Min(1, x))
}
