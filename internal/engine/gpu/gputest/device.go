// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"image"
	"image/color"
	"sync"

	"github.com/Faultbox/gyrosphere/internal/engine/gpu"
	"github.com/Faultbox/gyrosphere/internal/engine/lighting"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// TextureState is what a fake texture holds.
type TextureState struct {
	Params  gpu.SamplerParams
	Width   int
	Height  int
	Pixels  []byte
	Uploads int
}

// MeshState is what a fake mesh holds.
type MeshState struct {
	Vertices []float32
	Indices  []uint32
}

// Draw records one DrawMesh call with the state it saw.
type Draw struct {
	Mesh       gpu.Mesh
	Bound      map[int]gpu.Texture
	Projection math.Mat4
	ModelView  math.Mat4
	Light      lighting.Light
	Material   lighting.Material
	Texturing  bool
}

// Device is an in-memory gpu.Device. Ops lists every call by method name.
type Device struct {
	mu sync.Mutex

	Units   int
	MaxSize int

	Ops        []string
	Caps       map[gpu.Capability]bool
	ClearColor [4]float32
	ClearDepth float32
	Clears     int
	Viewport4  [4]int

	Projection math.Mat4
	ModelView  math.Mat4
	Ambient    [4]float32
	Lights     map[int]lighting.Light
	Material   lighting.Material

	Textures map[gpu.Texture]*TextureState
	Bound    map[int]gpu.Texture
	Deleted  []gpu.Texture

	Meshes   map[gpu.Mesh]*MeshState
	Draws    []Draw
	MeshErr  error
	Pending  []gpu.ErrorCode
	Readback color.RGBA

	next uint32
}

// New returns a fake with the given texture unit budget.
func New(units int) *Device {
	return &Device{
		Units:    units,
		Caps:     make(map[gpu.Capability]bool),
		Lights:   make(map[int]lighting.Light),
		Textures: make(map[gpu.Texture]*TextureState),
		Bound:    make(map[int]gpu.Texture),
		Meshes:   make(map[gpu.Mesh]*MeshState),
	}
}

var _ gpu.Device = (*Device)(nil)

func (d *Device) record(op string) {
	d.Ops = append(d.Ops, op)
}

// Count returns how many times op was called.
func (d *Device) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, o := range d.Ops {
		if o == op {
			n++
		}
	}
	return n
}

// SetCapability records the capability state.
func (d *Device) SetCapability(c gpu.Capability, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetCapability")
	d.Caps[c] = enabled
}

// SetClearColor records the clear color.
func (d *Device) SetClearColor(rgba [4]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetClearColor")
	d.ClearColor = rgba
}

// SetClearDepth records the clear depth.
func (d *Device) SetClearDepth(depth float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetClearDepth")
	d.ClearDepth = depth
}

// Clear counts clears.
func (d *Device) Clear(color, depth bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Clear")
	d.Clears++
}

// Viewport records the viewport.
func (d *Device) Viewport(x, y, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Viewport")
	d.Viewport4 = [4]int{x, y, width, height}
}

// SetTransforms records both matrices.
func (d *Device) SetTransforms(projection, modelView math.Mat4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetTransforms")
	d.Projection = projection
	d.ModelView = modelView
}

// SetLightModelAmbient records the global ambient color.
func (d *Device) SetLightModelAmbient(rgba [4]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetLightModelAmbient")
	d.Ambient = rgba
}

// SetLight records a light.
func (d *Device) SetLight(index int, l lighting.Light) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetLight")
	d.Lights[index] = l
}

// SetMaterial records the material.
func (d *Device) SetMaterial(m lighting.Material) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetMaterial")
	d.Material = m
}

// MaxTextureUnits returns Units.
func (d *Device) MaxTextureUnits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MaxTextureUnits")
	return d.Units
}

// MaxTextureSize returns MaxSize.
func (d *Device) MaxTextureSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MaxTextureSize")
	return d.MaxSize
}

// CreateTexture allocates a new handle.
func (d *Device) CreateTexture() gpu.Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateTexture")
	d.next++
	t := gpu.Texture(d.next)
	d.Textures[t] = &TextureState{}
	return t
}

// UploadTexture copies the pixels into the texture state.
func (d *Device) UploadTexture(t gpu.Texture, params gpu.SamplerParams, pix *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UploadTexture")
	st, ok := d.Textures[t]
	if !ok {
		d.Pending = append(d.Pending, 0x0501) // invalid value
		return
	}
	b := pix.Bounds()
	st.Params = params
	st.Width, st.Height = b.Dx(), b.Dy()
	st.Pixels = append([]byte(nil), pix.Pix...)
	st.Uploads++
}

// BindTexture records a binding.
func (d *Device) BindTexture(unit int, t gpu.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindTexture")
	if t == 0 {
		delete(d.Bound, unit)
		return
	}
	d.Bound[unit] = t
}

// DeleteTextures forgets textures.
func (d *Device) DeleteTextures(ts ...gpu.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteTextures")
	for _, t := range ts {
		delete(d.Textures, t)
		d.Deleted = append(d.Deleted, t)
	}
}

// CreateMesh stores copies of the buffers, or fails with MeshErr.
func (d *Device) CreateMesh(vertices []float32, indices []uint32) (gpu.Mesh, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateMesh")
	if d.MeshErr != nil {
		return 0, d.MeshErr
	}
	d.next++
	m := gpu.Mesh(d.next)
	d.Meshes[m] = &MeshState{
		Vertices: append([]float32(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
	}
	return m, nil
}

// DrawMesh records a draw with a snapshot of the bound state.
func (d *Device) DrawMesh(m gpu.Mesh) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DrawMesh")
	bound := make(map[int]gpu.Texture, len(d.Bound))
	for u, t := range d.Bound {
		bound[u] = t
	}
	d.Draws = append(d.Draws, Draw{
		Mesh:       m,
		Bound:      bound,
		Projection: d.Projection,
		ModelView:  d.ModelView,
		Light:      d.Lights[0],
		Material:   d.Material,
		Texturing:  d.Caps[gpu.Texture2D],
	})
}

// DeleteMesh forgets a mesh.
func (d *Device) DeleteMesh(m gpu.Mesh) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteMesh")
	delete(d.Meshes, m)
}

// Error pops the oldest pending error code.
func (d *Device) Error() gpu.ErrorCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Pending) == 0 {
		return gpu.NoError
	}
	code := d.Pending[0]
	d.Pending = d.Pending[1:]
	return code
}

// ReadPixels returns an image filled with Readback.
func (d *Device) ReadPixels(x, y, width, height int) *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ReadPixels")
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = d.Readback.R, d.Readback.G, d.Readback.B, d.Readback.A
	}
	return img
}

// LastDraw returns the latest draw, or false if nothing was drawn.
func (d *Device) LastDraw() (Draw, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Draws) == 0 {
		return Draw{}, false
	}
	return d.Draws[len(d.Draws)-1], true
}
