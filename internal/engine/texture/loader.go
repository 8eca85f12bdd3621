package texture

import (
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/logger"
)

// Source reads raw asset bytes by path.
type Source interface {
	Load(path string) ([]byte, error)
}

// Scheduler runs work on the graphics thread.
type Scheduler interface {
	ScheduleOnGraphicsThread(fn func())
}

// Loader decodes textures off the graphics thread.
type Loader struct {
	src   Source
	sched Scheduler

	// MaxSize bounds the larger side of decoded images; 0 means no limit.
	MaxSize int
}

// NewLoader creates a loader reading from src and handing results to sched.
func NewLoader(src Source, sched Scheduler) *Loader {
	return &Loader{src: src, sched: sched}
}

// DecodeAsync decodes paths in order on a background goroutine. Each result
// is passed to onDecoded on the graphics thread together with its slot, the
// index in paths. A path that fails to load or decode yields nil pixels.
func (l *Loader) DecodeAsync(paths []string, onDecoded func(pix *image.RGBA, slot int)) {
	paths = append([]string(nil), paths...)
	go func() {
		for slot, path := range paths {
			pix, err := l.Decode(path)
			if err != nil {
				logger.Error("texture decode failed", zap.String("path", path), zap.Int("slot", slot), zap.Error(err))
			}
			l.sched.ScheduleOnGraphicsThread(func() {
				onDecoded(pix, slot)
			})
		}
	}()
}

// Decode loads and decodes one texture synchronously.
func (l *Loader) Decode(path string) (*image.RGBA, error) {
	start := time.Now()

	data, err := l.src.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	pix, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	pix = FitWithin(pix, l.MaxSize)

	logger.Debug("texture decoded",
		zap.String("path", path),
		zap.Int("width", pix.Bounds().Dx()),
		zap.Int("height", pix.Bounds().Dy()),
		zap.Duration("took", time.Since(start)))
	return pix, nil
}
