package sensor

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/attitude"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/metrics"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Listener receives each new world-to-device rotation. It is called on the
// provider goroutine that delivered the completing sample.
type Listener interface {
	OnRotation(m math.Mat4, o attitude.Orientation)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(m math.Mat4, o attitude.Orientation)

// OnRotation calls f.
func (f ListenerFunc) OnRotation(m math.Mat4, o attitude.Orientation) {
	f(m, o)
}

// Source buffers the latest gravity and magnetic samples and estimates a
// rotation whenever either changes and both are known.
type Source struct {
	provider Provider

	mu          sync.Mutex
	gravity     *math.Vec3
	magnetic    *math.Vec3
	rotation    math.Mat4
	orientation attitude.Orientation
	invertAxes  bool
	listener    Listener
	started     bool
}

// NewSource creates a stopped Source reading from p.
func NewSource(p Provider) *Source {
	return &Source{
		provider: p,
		rotation: math.Identity(),
	}
}

// Start resets the rotation to identity and subscribes every sensor kind
// the provider has. Missing kinds are logged and skipped.
func (s *Source) Start() error {
	s.mu.Lock()
	s.rotation = math.Identity()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	for _, kind := range Kinds {
		if !s.provider.Has(kind) {
			logger.Warn("sensor unavailable, attitude will not update", zap.Stringer("kind", kind))
			continue
		}
		if err := s.provider.Subscribe(kind, s.onSample); err != nil {
			s.Stop()
			return fmt.Errorf("subscribe %s: %w", kind, err)
		}
	}
	return nil
}

// Stop unsubscribes from every sensor kind. Safe to call when not started.
func (s *Source) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return
	}
	// Callbacks take s.mu, so unsubscribe without holding it
	for _, kind := range Kinds {
		s.provider.Unsubscribe(kind)
	}
}

// SetAxisInversion enables the remap for sensors mounted with X and Y
// swapped. It applies from the next sample.
func (s *Source) SetAxisInversion(enabled bool) {
	s.mu.Lock()
	s.invertAxes = enabled
	s.mu.Unlock()
}

// AxisInversion reports whether the axis remap is enabled.
func (s *Source) AxisInversion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invertAxes
}

// SetListener replaces the rotation listener. nil disables notifications.
func (s *Source) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// LastOrientation returns the orientation of the latest estimate.
func (s *Source) LastOrientation() attitude.Orientation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orientation
}

func (s *Source) onSample(sample Sample) {
	metrics.IncSensorSample(sample.Kind.String())

	v := sample.Values
	s.mu.Lock()
	switch sample.Kind {
	case KindGravity:
		s.gravity = &v
	case KindMagnetic:
		s.magnetic = &v
	default:
		s.mu.Unlock()
		return
	}

	m, o, ok := attitude.Estimate(s.gravity, s.magnetic, s.invertAxes)
	if ok {
		s.rotation = m
		s.orientation = o
	}
	listener := s.listener
	s.mu.Unlock()

	if !ok {
		return
	}
	metrics.IncEstimate()

	az, pitch, roll := o.Degrees()
	logger.Telemetry.Debug("orientation",
		zap.Float32("azimuth", az),
		zap.Float32("pitch", pitch),
		zap.Float32("roll", roll))

	if listener != nil {
		listener.OnRotation(m, o)
	}
}
