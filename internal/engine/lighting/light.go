// Package lighting describes a fixed-function style light and material.
package lighting

import (
	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Light is a single positional or directional light with an optional spot
// cone, following the classic GL 1.x light model.
type Light struct {
	Position      math.Vec4 // w=0 directional, w=1 positional
	Ambient       [4]float32
	Diffuse       [4]float32
	Specular      [4]float32
	SpotDirection math.Vec3
	SpotCutoff    float32 // degrees in [0,90], or 180 for no cone
	SpotExponent  float32
	Attenuation   [3]float32 // constant, linear, quadratic
}

// Material describes how a surface reflects light.
type Material struct {
	Ambient   [4]float32
	Diffuse   [4]float32
	Specular  [4]float32
	Shininess float32
}

// LightFromConfig builds a Light from its configuration section.
func LightFromConfig(c config.LightConfig) Light {
	return Light{
		Position:      math.Vec4(c.Position),
		Ambient:       c.Ambient,
		Diffuse:       c.Diffuse,
		Specular:      c.Specular,
		SpotDirection: math.Vec3{X: c.SpotDirection[0], Y: c.SpotDirection[1], Z: c.SpotDirection[2]},
		SpotCutoff:    c.SpotCutoff,
		SpotExponent:  c.SpotExponent,
		Attenuation:   c.Attenuation,
	}
}

// MaterialFromConfig builds a Material from its configuration section.
func MaterialFromConfig(c config.MaterialConfig) Material {
	return Material{
		Ambient:   c.Ambient,
		Diffuse:   c.Diffuse,
		Specular:  c.Specular,
		Shininess: c.Shininess,
	}
}

// EyeSpace returns the light with its position and spot direction
// transformed by the view matrix, as GL does when a light is specified.
func (l Light) EyeSpace(view math.Mat4) Light {
	l.Position = view.MulVec4(l.Position)
	l.SpotDirection = view.TransformDirection(l.SpotDirection)
	return l
}

// Spot reports whether the light has a spot cone.
func (l Light) Spot() bool {
	return l.SpotCutoff < 180
}

// Directional reports whether the light is at infinity.
func (l Light) Directional() bool {
	return l.Position[3] == 0
}
