// Package renderer draws the attitude-tracked sphere.
package renderer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/attitude"
	"github.com/Faultbox/gyrosphere/internal/engine/camera"
	"github.com/Faultbox/gyrosphere/internal/engine/gpu"
	"github.com/Faultbox/gyrosphere/internal/engine/lighting"
	"github.com/Faultbox/gyrosphere/internal/engine/mesh"
	"github.com/Faultbox/gyrosphere/internal/engine/texture"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/metrics"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Host is the render surface. It calls OnSurfaceCreated, OnSurfaceChanged
// and OnDrawFrame on its graphics thread.
type Host interface {
	// RequestRedraw asks for one more frame. Requests made before the next
	// frame coalesce into one. Safe from any goroutine.
	RequestRedraw()
	// ScheduleOnGraphicsThread queues fn to run on the graphics thread.
	// Safe from any goroutine.
	ScheduleOnGraphicsThread(fn func())
}

// Config holds the static scene description.
type Config struct {
	LatBands   int
	LonBands   int
	Radius     float32
	ClearColor [4]float32
	Camera     *camera.FixedCamera
	Light      lighting.Light
	Material   lighting.Material
	Textures   []string // texture files, by slot
	Smoothing  bool
}

// Renderer draws one lit, textured sphere oriented by an attitude.State.
type Renderer struct {
	config Config

	dev      gpu.Device
	host     Host
	state    *attitude.State
	loader   *texture.Loader
	textures *texture.Pipeline

	sphere     *mesh.Sphere
	gpuMesh    gpu.Mesh
	projection math.Mat4
	width      int
	height     int
	smoothing  bool
}

// New builds the sphere geometry. GPU resources are created in
// OnSurfaceCreated.
func New(cfg Config, dev gpu.Device, host Host, state *attitude.State, loader *texture.Loader) (*Renderer, error) {
	sphere, err := mesh.BuildSphere(cfg.LatBands, cfg.LonBands, cfg.Radius)
	if err != nil {
		return nil, fmt.Errorf("build sphere: %w", err)
	}
	if cfg.Camera == nil {
		cfg.Camera = camera.NewFixedCamera()
	}

	return &Renderer{
		config:     cfg,
		dev:        dev,
		host:       host,
		state:      state,
		loader:     loader,
		textures:   texture.NewPipeline(dev, host),
		sphere:     sphere,
		projection: math.Identity(),
		smoothing:  cfg.Smoothing,
	}, nil
}

// OnSurfaceCreated sets up pipeline state, uploads the mesh and starts
// decoding textures in the background.
func (r *Renderer) OnSurfaceCreated() {
	if r.gpuMesh != 0 {
		r.releaseResources()
	}

	d := r.dev
	d.SetCapability(gpu.DepthTest, true)
	d.SetCapability(gpu.Blend, false)
	d.SetCapability(gpu.StencilTest, false)
	d.SetCapability(gpu.AlphaTest, false)
	d.SetCapability(gpu.Dither, true)
	d.SetCapability(gpu.Texture2D, true)
	d.SetCapability(gpu.Lighting, true)
	d.SetCapability(gpu.Fog, false)

	d.SetClearColor(r.config.ClearColor)
	d.SetClearDepth(1)
	d.SetLightModelAmbient(r.config.Material.Ambient)

	r.textures.SetMaxUnits(d.MaxTextureUnits())
	if r.loader != nil {
		r.loader.MaxSize = d.MaxTextureSize()
	}

	m, err := d.CreateMesh(r.sphere.Interleave(), r.sphere.Indices)
	if err != nil {
		logger.Error("failed to create sphere mesh", zap.Error(err))
	} else {
		r.gpuMesh = m
	}
	gpu.LogErrors(d, "surface created")

	logger.Info("surface created",
		zap.Int("vertices", r.sphere.VertexCount()),
		zap.Int("indices", len(r.sphere.Indices)),
		zap.Int("max_texture_units", r.textures.MaxUnits()),
		zap.Int("max_texture_size", d.MaxTextureSize()),
		zap.Bool("spot_light", r.config.Light.Spot()),
		zap.Bool("directional_light", r.config.Light.Directional()))

	if r.loader != nil && len(r.config.Textures) > 0 {
		r.loader.DecodeAsync(r.config.Textures, r.textures.Upload)
	}
}

// OnSurfaceChanged sets the viewport and the perspective projection.
func (r *Renderer) OnSurfaceChanged(width, height int) {
	r.width, r.height = width, height
	r.dev.Viewport(0, 0, width, height)
	r.projection = r.config.Camera.Projection(width, height)

	logger.Debug("surface changed",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// OnDrawFrame draws one frame. When attitude smoothing has not settled it
// requests another frame.
func (r *Renderer) OnDrawFrame() {
	start := time.Now()
	d := r.dev

	d.Clear(true, true)

	view := r.config.Camera.ViewMatrix()
	d.SetLight(0, r.config.Light.EyeSpace(view))

	current, more := r.state.ResolveForFrame(r.smoothing)
	if more {
		r.host.RequestRedraw()
	}
	model := r.state.ModelMatrix(current)
	d.SetTransforms(r.projection, view.Mul(model))

	// Untextured until slot 0 has pixels
	d.SetCapability(gpu.Texture2D, r.textures.Bind())
	d.SetMaterial(r.config.Material)
	if r.gpuMesh != 0 {
		d.DrawMesh(r.gpuMesh)
	}

	gpu.LogErrors(d, "draw frame")
	metrics.RecordFrame(time.Since(start))
}

// SetSmoothing turns damped attitude interpolation on or off.
func (r *Renderer) SetSmoothing(enabled bool) {
	r.smoothing = enabled
	r.host.RequestRedraw()
}

// Smoothing reports whether attitude smoothing is on.
func (r *Renderer) Smoothing() bool {
	return r.smoothing
}

// Size returns the last surface size.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Textures returns the texture pipeline.
func (r *Renderer) Textures() *texture.Pipeline {
	return r.textures
}

// Close releases GPU resources. Call on the graphics thread.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.releaseResources()
}

func (r *Renderer) releaseResources() {
	r.textures.Release()
	if r.gpuMesh != 0 {
		r.dev.DeleteMesh(r.gpuMesh)
		r.gpuMesh = 0
	}
}
