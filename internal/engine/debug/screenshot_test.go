package debug

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/gyrosphere/internal/engine/gpu/gputest"
)

func TestGenerateFilename(t *testing.T) {
	sc := NewScreenshotCapture("shots", "gyro")
	sc.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC) }

	want := filepath.Join("shots", "gyro_2026-03-04_05-06-07.008.png")
	if got := sc.GenerateFilename(); got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}

	sc.SetOutputDir("")
	if got := sc.GenerateFilename(); strings.Contains(got, string(filepath.Separator)) {
		t.Errorf("expected a bare filename, got %q", got)
	}
}

func TestCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sc := NewScreenshotCapture(dir, "gyro")

	dev := gputest.New(1)
	dev.Readback = color.RGBA{R: 10, G: 20, B: 30, A: 255}

	filename, err := sc.Capture(dev, 4, 3)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("expected 4x3 image, got %v", b)
	}
	r, g, b, _ := img.At(2, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("unexpected pixel (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestCaptureInvalidSize(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "gyro")
	if _, err := sc.Capture(gputest.New(1), 0, 10); err == nil {
		t.Error("expected an error for an empty framebuffer")
	}
}
