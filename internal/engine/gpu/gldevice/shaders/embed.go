// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// FixedVertexShader lights each vertex the way the GL 1.x pipeline does.
//
//go:embed fixed.vert
var FixedVertexShader string

// FixedFragmentShader modulates the lit color with texture unit 0.
//
//go:embed fixed.frag
var FixedFragmentShader string
