package texture

import (
	"image"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/engine/gpu"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/metrics"
)

// Redrawer is asked for a new frame after a texture changes.
type Redrawer interface {
	RequestRedraw()
}

// DefaultSampler clamps at the edges and filters linearly.
var DefaultSampler = gpu.SamplerParams{
	WrapS:     gpu.ClampToEdge,
	WrapT:     gpu.ClampToEdge,
	MinFilter: gpu.Linear,
	MagFilter: gpu.Linear,
}

// Pipeline owns one GPU texture per slot. It must only be used on the
// graphics thread.
type Pipeline struct {
	dev      gpu.Device
	redraw   Redrawer
	maxUnits int
	slots    map[int]gpu.Texture
}

// NewPipeline creates a pipeline with a budget of one texture unit until
// SetMaxUnits is called. redraw may be nil.
func NewPipeline(dev gpu.Device, redraw Redrawer) *Pipeline {
	return &Pipeline{
		dev:      dev,
		redraw:   redraw,
		maxUnits: 1,
		slots:    make(map[int]gpu.Texture),
	}
}

// SetMaxUnits sets the number of texture units slots may use.
func (p *Pipeline) SetMaxUnits(n int) {
	p.maxUnits = max(n, 0)
}

// MaxUnits returns the texture unit budget.
func (p *Pipeline) MaxUnits() int {
	return p.maxUnits
}

// Upload transfers pix into the texture of slot, creating it on first use.
// Nil or empty pixels and slots outside the unit budget are logged and
// skipped. The pixel slice is released after the transfer.
func (p *Pipeline) Upload(pix *image.RGBA, slot int) {
	if pix == nil || pix.Pix == nil || pix.Bounds().Empty() {
		metrics.IncTextureUpload(metrics.UploadFailed)
		logger.Error("no pixels for texture slot, skipped", zap.Int("slot", slot))
		return
	}
	if slot < 0 || slot >= p.maxUnits {
		metrics.IncTextureUpload(metrics.UploadSkipped)
		logger.Warn("texture slot beyond unit budget, left unbound",
			zap.Int("slot", slot), zap.Int("max_units", p.maxUnits))
		return
	}

	handle, ok := p.slots[slot]
	if !ok {
		handle = p.dev.CreateTexture()
		p.slots[slot] = handle
	}

	b := pix.Bounds()
	p.dev.UploadTexture(handle, DefaultSampler, pix)
	pix.Pix = nil

	if gpu.LogErrors(p.dev, "texture upload") {
		metrics.IncTextureUpload(metrics.UploadFailed)
	} else {
		metrics.IncTextureUpload(metrics.UploadOK)
	}
	logger.Info("texture uploaded",
		zap.Int("slot", slot),
		zap.Uint32("handle", uint32(handle)),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))

	if p.redraw != nil {
		p.redraw.RequestRedraw()
	}
}

// Bind binds every uploaded slot within the unit budget to its unit. It
// reports whether unit 0, the one the sphere samples, has a texture.
func (p *Pipeline) Bind() bool {
	for slot := 0; slot < p.maxUnits; slot++ {
		if handle, ok := p.slots[slot]; ok {
			p.dev.BindTexture(slot, handle)
		}
	}
	_, ok := p.slots[0]
	return ok && p.maxUnits > 0
}

// Handle returns the texture of slot, if uploaded.
func (p *Pipeline) Handle(slot int) (gpu.Texture, bool) {
	h, ok := p.slots[slot]
	return h, ok
}

// Release deletes every texture.
func (p *Pipeline) Release() {
	if len(p.slots) == 0 {
		return
	}
	slots := make([]int, 0, len(p.slots))
	for s := range p.slots {
		slots = append(slots, s)
	}
	sort.Ints(slots)

	handles := make([]gpu.Texture, 0, len(slots))
	for _, s := range slots {
		handles = append(handles, p.slots[s])
	}
	p.dev.DeleteTextures(handles...)
	p.slots = make(map[int]gpu.Texture)
}
