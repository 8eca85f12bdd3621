// Package gpu defines the slice of a graphics API the renderer draws with.
// The GL implementation lives in gldevice; gputest records calls for tests.
package gpu

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/engine/lighting"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/metrics"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Capability is a pipeline feature toggled with SetCapability.
type Capability int

// Capabilities of the fixed-function style pipeline.
const (
	DepthTest Capability = iota
	Blend
	StencilTest
	AlphaTest
	Dither
	Texture2D
	Lighting
	Fog
)

var capabilityNames = [...]string{"depth_test", "blend", "stencil_test", "alpha_test", "dither", "texture_2d", "lighting", "fog"}

func (c Capability) String() string {
	if c >= 0 && int(c) < len(capabilityNames) {
		return capabilityNames[c]
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// Texture is a GPU texture handle. Zero is never a valid handle.
type Texture uint32

// Mesh is a GPU indexed mesh handle. Zero is never a valid handle.
type Mesh uint32

// Wrap is a texture coordinate wrap mode.
type Wrap int

// Wrap modes.
const (
	ClampToEdge Wrap = iota
	Repeat
)

// Filter is a texture sampling filter.
type Filter int

// Filters.
const (
	Linear Filter = iota
	Nearest
)

// SamplerParams configures texture sampling.
type SamplerParams struct {
	WrapS, WrapT         Wrap
	MinFilter, MagFilter Filter
}

// ErrorCode is a GPU error code. NoError is zero.
type ErrorCode uint32

// NoError means no error was recorded.
const NoError ErrorCode = 0

func (e ErrorCode) String() string {
	return fmt.Sprintf("0x%04X", uint32(e))
}

// Device is the drawing surface of one graphics context. All methods must
// be called on the thread that owns the context.
type Device interface {
	SetCapability(c Capability, enabled bool)
	SetClearColor(rgba [4]float32)
	SetClearDepth(depth float32)
	Clear(color, depth bool)
	Viewport(x, y, width, height int)

	// SetTransforms sets the projection and model-view matrices.
	SetTransforms(projection, modelView math.Mat4)
	// SetLightModelAmbient sets the scene-wide ambient color.
	SetLightModelAmbient(rgba [4]float32)
	// SetLight sets light index with position and direction in eye space.
	SetLight(index int, l lighting.Light)
	SetMaterial(m lighting.Material)

	// MaxTextureUnits is the number of texture units fragment shading can use.
	MaxTextureUnits() int
	// MaxTextureSize is the largest width or height a texture may have.
	MaxTextureSize() int
	CreateTexture() Texture
	// UploadTexture replaces the texture's pixels and sampler parameters.
	UploadTexture(t Texture, params SamplerParams, pix *image.RGBA)
	// BindTexture binds t to unit; zero unbinds.
	BindTexture(unit int, t Texture)
	DeleteTextures(ts ...Texture)

	// CreateMesh uploads interleaved position, normal and texcoord floats.
	CreateMesh(vertices []float32, indices []uint32) (Mesh, error)
	DrawMesh(m Mesh)
	DeleteMesh(m Mesh)

	// Error returns and clears the oldest recorded error code.
	Error() ErrorCode
	// ReadPixels reads the framebuffer, top row first.
	ReadPixels(x, y, width, height int) *image.RGBA
}

// CheckError drains every pending error code of d and returns them.
func CheckError(d Device) []ErrorCode {
	var codes []ErrorCode
	// Bounded in case a driver never clears its flags
	for i := 0; i < 8; i++ {
		code := d.Error()
		if code == NoError {
			break
		}
		codes = append(codes, code)
	}
	return codes
}

// LogErrors drains pending error codes and logs each one against site.
// It reports whether any error was found. Errors are never fatal.
func LogErrors(d Device, site string) bool {
	codes := CheckError(d)
	for _, code := range codes {
		metrics.IncGPUError(site)
		logger.Error("gpu error", zap.String("site", site), zap.Stringer("code", code))
	}
	return len(codes) > 0
}
