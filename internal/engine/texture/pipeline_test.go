package texture

import (
	"image"
	"testing"

	"github.com/Faultbox/gyrosphere/internal/engine/gpu"
	"github.com/Faultbox/gyrosphere/internal/engine/gpu/gputest"
)

type redrawCounter int

func (r *redrawCounter) RequestRedraw() { *r++ }

func TestUploadCreatesAndReusesHandle(t *testing.T) {
	dev := gputest.New(8)
	var redraws redrawCounter
	p := NewPipeline(dev, &redraws)
	p.SetMaxUnits(dev.MaxTextureUnits())

	pix := checker(4, 2)
	p.Upload(pix, 0)

	handle, ok := p.Handle(0)
	if !ok {
		t.Fatal("expected a handle for slot 0")
	}
	st := dev.Textures[handle]
	if st == nil || st.Width != 4 || st.Height != 2 || len(st.Pixels) != 4*2*4 {
		t.Fatalf("unexpected texture state %+v", st)
	}
	if st.Params != DefaultSampler {
		t.Errorf("expected clamp-to-edge linear sampling, got %+v", st.Params)
	}
	if pix.Pix != nil {
		t.Error("expected the pixel buffer to be released after upload")
	}
	if redraws != 1 {
		t.Errorf("expected one redraw request, got %d", redraws)
	}

	// Same slot again reuses the handle
	p.Upload(checker(2, 2), 0)
	again, _ := p.Handle(0)
	if again != handle {
		t.Errorf("expected handle %d reused, got %d", handle, again)
	}
	if dev.Count("CreateTexture") != 1 || st.Uploads != 2 {
		t.Errorf("expected 1 texture with 2 uploads, got %d textures, %d uploads", dev.Count("CreateTexture"), st.Uploads)
	}
}

func TestUploadNilPixelsSkipped(t *testing.T) {
	dev := gputest.New(8)
	var redraws redrawCounter
	p := NewPipeline(dev, &redraws)
	p.SetMaxUnits(8)

	p.Upload(nil, 0)
	p.Upload(checker(1, 1), 1)

	if _, ok := p.Handle(0); ok {
		t.Error("expected no texture for a failed decode")
	}
	if _, ok := p.Handle(1); !ok {
		t.Error("expected other slots unaffected")
	}
	if redraws != 1 {
		t.Errorf("expected one redraw request, got %d", redraws)
	}
}

func TestSlotBeyondUnitBudget(t *testing.T) {
	dev := gputest.New(2)
	p := NewPipeline(dev, nil)
	p.SetMaxUnits(dev.MaxTextureUnits())

	p.Upload(checker(2, 2), 0)
	p.Upload(checker(2, 2), 1)
	p.Upload(checker(2, 2), 2) // beyond the budget

	if _, ok := p.Handle(2); ok {
		t.Error("expected slot 2 not uploaded")
	}
	if dev.Count("CreateTexture") != 2 {
		t.Errorf("expected 2 textures, got %d", dev.Count("CreateTexture"))
	}

	if !p.Bind() {
		t.Error("expected unit 0 reported as textured")
	}
	if len(dev.Bound) != 2 {
		t.Errorf("expected 2 bound units, got %v", dev.Bound)
	}
	if _, ok := dev.Bound[2]; ok {
		t.Error("expected unit 2 left unbound")
	}
}

func TestBindAfterBudgetShrinks(t *testing.T) {
	dev := gputest.New(4)
	p := NewPipeline(dev, nil)
	p.SetMaxUnits(4)
	p.Upload(checker(1, 1), 0)
	p.Upload(checker(1, 1), 3)

	p.SetMaxUnits(1)
	p.Bind()

	if len(dev.Bound) != 1 {
		t.Errorf("expected only unit 0 bound, got %v", dev.Bound)
	}
}

func TestUploadGPUErrorStillCompletes(t *testing.T) {
	dev := gputest.New(1)
	dev.Pending = []gpu.ErrorCode{0x0505}
	var redraws redrawCounter
	p := NewPipeline(dev, &redraws)

	p.Upload(checker(1, 1), 0)

	if len(dev.Pending) != 0 {
		t.Error("expected the error to be polled")
	}
	if redraws != 1 {
		t.Errorf("expected a redraw despite the error, got %d", redraws)
	}
}

func TestRelease(t *testing.T) {
	dev := gputest.New(4)
	p := NewPipeline(dev, nil)
	p.SetMaxUnits(4)
	p.Upload(checker(1, 1), 0)
	p.Upload(checker(1, 1), 1)

	p.Release()

	if len(dev.Deleted) != 2 || len(dev.Textures) != 0 {
		t.Errorf("expected both textures deleted, got %v", dev.Deleted)
	}
	if _, ok := p.Handle(0); ok {
		t.Error("expected no handles after release")
	}

	// Nothing left to delete
	p.Release()
	if dev.Count("DeleteTextures") != 1 {
		t.Errorf("expected a single delete call, got %d", dev.Count("DeleteTextures"))
	}
}

func TestEmptyImageBounds(t *testing.T) {
	dev := gputest.New(1)
	p := NewPipeline(dev, nil)

	p.Upload(&image.RGBA{}, 0)
	if _, ok := p.Handle(0); ok {
		t.Error("expected an image without pixels to be skipped")
	}
}

func TestUploadZeroSizedImageSkipped(t *testing.T) {
	dev := gputest.New(1)
	var redraws redrawCounter
	p := NewPipeline(dev, &redraws)

	// Non-nil but empty pixel buffer
	p.Upload(image.NewRGBA(image.Rect(0, 0, 0, 1)), 0)

	if _, ok := p.Handle(0); ok {
		t.Error("expected a zero-sized image to be skipped")
	}
	if dev.Count("CreateTexture") != 0 || dev.Count("UploadTexture") != 0 {
		t.Errorf("expected no device calls, got %v", dev.Ops)
	}
	if redraws != 0 {
		t.Errorf("expected no redraw request, got %d", redraws)
	}
}

func TestBindReportsUnitZero(t *testing.T) {
	dev := gputest.New(4)
	p := NewPipeline(dev, nil)
	p.SetMaxUnits(4)

	if p.Bind() {
		t.Error("expected no texture before any upload")
	}

	p.Upload(checker(1, 1), 1)
	if p.Bind() {
		t.Error("expected unit 0 untextured when only slot 1 is uploaded")
	}

	p.Upload(checker(1, 1), 0)
	if !p.Bind() {
		t.Error("expected unit 0 textured")
	}

	p.SetMaxUnits(0)
	if p.Bind() {
		t.Error("expected no texturing without units")
	}
}
