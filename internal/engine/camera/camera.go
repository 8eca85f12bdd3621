// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// FixedCamera looks from a fixed eye position at a fixed center.
type FixedCamera struct {
	Eye    math.Vec3
	Center math.Vec3
	Up     math.Vec3

	FovYDeg float32 // Vertical field of view in degrees
	Near    float32
	Far     float32
}

// NewFixedCamera creates a camera looking at the origin from 30 units down +Z.
func NewFixedCamera() *FixedCamera {
	return &FixedCamera{
		Eye:     math.Vec3{X: 0, Y: 0, Z: 30},
		Center:  math.Vec3{},
		Up:      math.Vec3{X: 0, Y: 1, Z: 0},
		FovYDeg: 60,
		Near:    0.1,
		Far:     100,
	}
}

// FromConfig creates a camera from the scene section.
func FromConfig(c config.SceneConfig) *FixedCamera {
	cam := NewFixedCamera()
	cam.Eye = math.Vec3{X: c.Eye[0], Y: c.Eye[1], Z: c.Eye[2]}
	cam.FovYDeg = c.FovYDeg
	cam.Near = c.Near
	cam.Far = c.Far
	return cam
}

// ViewMatrix returns the view matrix for this camera.
func (c *FixedCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Eye, c.Center, c.Up)
}

// Projection returns the perspective projection for a viewport size.
// A zero height is treated as one.
func (c *FixedCamera) Projection(width, height int) math.Mat4 {
	if height <= 0 {
		height = 1
	}
	aspect := float32(width) / float32(height)
	fovY := float32(float64(c.FovYDeg) * gomath.Pi / 180)
	return math.Perspective(fovY, aspect, c.Near, c.Far)
}
