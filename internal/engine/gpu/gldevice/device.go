// Package gldevice implements gpu.Device on OpenGL 4.1 core. The classic
// fixed-function state (lights, material, texture enable) is kept in
// uniforms of one shader program.
package gldevice

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/engine/gpu"
	"github.com/Faultbox/gyrosphere/internal/engine/gpu/gldevice/shaders"
	"github.com/Faultbox/gyrosphere/internal/engine/lighting"
	"github.com/Faultbox/gyrosphere/internal/engine/mesh"
	"github.com/Faultbox/gyrosphere/internal/engine/shader"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

type glMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// Device draws with the current OpenGL context.
type Device struct {
	program *shader.Program
	meshes  map[gpu.Mesh]*glMesh
	caps    map[gpu.Capability]bool
}

var _ gpu.Device = (*Device)(nil)

// New loads GL entry points and compiles the lighting program.
// IMPORTANT: Must be called AFTER the OpenGL context is current!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.NewProgram(shaders.FixedVertexShader, shaders.FixedFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	d := &Device{
		program: program,
		meshes:  make(map[gpu.Mesh]*glMesh),
		caps:    make(map[gpu.Capability]bool),
	}

	program.Use()
	gl.Uniform1i(program.Uniform("uTexture0"), 0)
	gl.DepthFunc(gl.LEQUAL)
	d.SetTransforms(math.Identity(), math.Identity())

	return d, nil
}

// Close releases the program and every mesh still alive.
func (d *Device) Close() {
	for m := range d.meshes {
		d.DeleteMesh(m)
	}
	d.program.Delete()
}

// SetCapability toggles GL state or the matching shader switch. Alpha test
// and fog have no core profile equivalent and are only recorded.
func (d *Device) SetCapability(c gpu.Capability, enabled bool) {
	d.caps[c] = enabled

	switch c {
	case gpu.DepthTest:
		setEnabled(gl.DEPTH_TEST, enabled)
	case gpu.Blend:
		setEnabled(gl.BLEND, enabled)
	case gpu.StencilTest:
		setEnabled(gl.STENCIL_TEST, enabled)
	case gpu.Dither:
		setEnabled(gl.DITHER, enabled)
	case gpu.Texture2D:
		gl.Uniform1i(d.program.Uniform("uTexture2D"), boolToInt(enabled))
	case gpu.Lighting:
		gl.Uniform1i(d.program.Uniform("uLighting"), boolToInt(enabled))
	case gpu.AlphaTest, gpu.Fog:
		if enabled {
			logger.Debug("capability not supported by the core profile", zap.Stringer("capability", c))
		}
	}
}

func setEnabled(c uint32, enabled bool) {
	if enabled {
		gl.Enable(c)
	} else {
		gl.Disable(c)
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// SetClearColor sets the color buffer clear value.
func (d *Device) SetClearColor(c [4]float32) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
}

// SetClearDepth sets the depth buffer clear value.
func (d *Device) SetClearDepth(depth float32) {
	gl.ClearDepth(float64(depth))
}

// Clear clears the selected buffers.
func (d *Device) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

// Viewport sets the viewport rectangle.
func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

// SetTransforms uploads the projection, model-view and normal matrices.
func (d *Device) SetTransforms(projection, modelView math.Mat4) {
	gl.UniformMatrix4fv(d.program.Uniform("uProjection"), 1, false, projection.Ptr())
	gl.UniformMatrix4fv(d.program.Uniform("uModelView"), 1, false, modelView.Ptr())
	normal := modelView.NormalMatrix()
	gl.UniformMatrix3fv(d.program.Uniform("uNormalMatrix"), 1, false, &normal[0])
}

// SetLightModelAmbient sets the scene ambient color.
func (d *Device) SetLightModelAmbient(c [4]float32) {
	gl.Uniform4fv(d.program.Uniform("uSceneAmbient"), 1, &c[0])
}

// SetLight uploads light 0. The program has a single light.
func (d *Device) SetLight(index int, l lighting.Light) {
	if index != 0 {
		logger.Warn("only light 0 is supported", zap.Int("index", index))
		return
	}
	p := d.program
	gl.Uniform4fv(p.Uniform("uLight.position"), 1, &l.Position[0])
	gl.Uniform4fv(p.Uniform("uLight.ambient"), 1, &l.Ambient[0])
	gl.Uniform4fv(p.Uniform("uLight.diffuse"), 1, &l.Diffuse[0])
	gl.Uniform4fv(p.Uniform("uLight.specular"), 1, &l.Specular[0])
	dir := l.SpotDirection.Array()
	gl.Uniform3fv(p.Uniform("uLight.spotDirection"), 1, &dir[0])
	gl.Uniform1f(p.Uniform("uLight.spotCutoff"), l.SpotCutoff)
	gl.Uniform1f(p.Uniform("uLight.spotExponent"), l.SpotExponent)
	gl.Uniform3fv(p.Uniform("uLight.attenuation"), 1, &l.Attenuation[0])
}

// SetMaterial uploads the front material.
func (d *Device) SetMaterial(m lighting.Material) {
	p := d.program
	gl.Uniform4fv(p.Uniform("uMaterial.ambient"), 1, &m.Ambient[0])
	gl.Uniform4fv(p.Uniform("uMaterial.diffuse"), 1, &m.Diffuse[0])
	gl.Uniform4fv(p.Uniform("uMaterial.specular"), 1, &m.Specular[0])
	gl.Uniform1f(p.Uniform("uMaterial.shininess"), m.Shininess)
}

// MaxTextureUnits queries the fragment stage texture unit limit.
func (d *Device) MaxTextureUnits() int {
	var n int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &n)
	return int(n)
}

// MaxTextureSize queries the largest supported texture dimension.
func (d *Device) MaxTextureSize() int {
	var n int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &n)
	return int(n)
}

// CreateTexture generates a texture name.
func (d *Device) CreateTexture() gpu.Texture {
	var id uint32
	gl.GenTextures(1, &id)
	return gpu.Texture(id)
}

// UploadTexture binds t on unit 0 and transfers the pixels.
func (d *Device) UploadTexture(t gpu.Texture, params gpu.SamplerParams, pix *image.RGBA) {
	b := pix.Bounds()
	if b.Empty() || len(pix.Pix) == 0 {
		logger.Warn("empty texture upload ignored", zap.Uint32("texture", uint32(t)))
		return
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(params.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(params.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(params.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(params.MagFilter))

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(pix.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix.Pix[pix.PixOffset(b.Min.X, b.Min.Y):]))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
}

func wrapMode(w gpu.Wrap) int32 {
	if w == gpu.Repeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func filterMode(f gpu.Filter) int32 {
	if f == gpu.Nearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

// BindTexture binds t to a texture unit.
func (d *Device) BindTexture(unit int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.ActiveTexture(gl.TEXTURE0)
}

// DeleteTextures deletes texture names.
func (d *Device) DeleteTextures(ts ...gpu.Texture) {
	if len(ts) == 0 {
		return
	}
	ids := make([]uint32, len(ts))
	for i, t := range ts {
		ids[i] = uint32(t)
	}
	gl.DeleteTextures(int32(len(ids)), &ids[0])
}

// CreateMesh uploads interleaved vertices (mesh.FloatsPerVertex floats each)
// and 32-bit indices into a new vertex array.
func (d *Device) CreateMesh(vertices []float32, indices []uint32) (gpu.Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return 0, fmt.Errorf("empty mesh: %d floats, %d indices", len(vertices), len(indices))
	}
	if len(vertices)%mesh.FloatsPerVertex != 0 {
		return 0, fmt.Errorf("vertex data length %d is not a multiple of %d", len(vertices), mesh.FloatsPerVertex)
	}

	m := &glMesh{count: int32(len(indices))}
	const stride = int32(mesh.FloatsPerVertex * 4)

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	handle := gpu.Mesh(m.vao)
	d.meshes[handle] = m
	return handle, nil
}

// DrawMesh draws every triangle of the mesh.
func (d *Device) DrawMesh(handle gpu.Mesh) {
	m := d.meshes[handle]
	if m == nil {
		return
	}
	d.program.Use()
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// DeleteMesh releases the mesh buffers.
func (d *Device) DeleteMesh(handle gpu.Mesh) {
	m := d.meshes[handle]
	if m == nil {
		return
	}
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteVertexArrays(1, &m.vao)
	delete(d.meshes, handle)
}

// Error returns the next GL error flag.
func (d *Device) Error() gpu.ErrorCode {
	return gpu.ErrorCode(gl.GetError())
}

// ReadPixels reads the back buffer and flips it so row 0 is the top.
func (d *Device) ReadPixels(x, y, width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	buf := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for row := 0; row < height; row++ {
		src := (height - 1 - row) * rowSize
		copy(img.Pix[row*img.Stride:row*img.Stride+rowSize], buf[src:src+rowSize])
	}
	return img
}
