package attitude

import (
	gomath "math"
	"sync"

	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Redrawer is notified whenever the attitude changes and a new frame is due.
type Redrawer interface {
	RequestRedraw()
}

// Options tunes smoothing and the starting calibration.
type Options struct {
	// Damping is the fraction of the remaining arc covered per smoothed frame.
	Damping float32
	// Threshold is the remaining angle in radians at which smoothing snaps.
	Threshold float32
	// InitialCalibration is used until the first calibration.
	InitialCalibration math.Mat4
}

// DefaultOptions returns the stock smoothing tunables and a calibration
// that tips the sphere 90 degrees about +X.
func DefaultOptions() Options {
	return Options{
		Damping:            0.7,
		Threshold:          0.001,
		InitialCalibration: math.RotateAxis(math.Vec3{X: 1}, gomath.Pi/2),
	}
}

// State is the attitude shared between the sensor goroutine and the
// graphics thread. Matrices are copied in and out whole under one mutex.
type State struct {
	mu          sync.Mutex
	live        math.Mat4    // device to world, latest sample
	calibration math.Mat4    // applied after the live attitude
	current     [2]math.Mat4 // [0] render-ready, [1] last resolve target

	damping   float32
	threshold float32
	redraw    Redrawer
}

// NewState creates a State. redraw may be nil.
func NewState(redraw Redrawer, opts Options) *State {
	if opts.Damping <= 0 || opts.Damping > 1 {
		opts.Damping = DefaultOptions().Damping
	}
	return &State{
		live:        math.Identity(),
		calibration: opts.InitialCalibration,
		current:     [2]math.Mat4{math.Identity(), math.Identity()},
		damping:     opts.Damping,
		threshold:   opts.Threshold,
		redraw:      redraw,
	}
}

// Publish stores a world-to-device rotation from the estimator as the live
// attitude. Safe to call from any goroutine.
func (s *State) Publish(m math.Mat4) {
	live := m.Transpose().Inverse()

	s.mu.Lock()
	s.live = live
	s.mu.Unlock()

	s.requestRedraw()
}

// SetCalibrationFromCurrentLive makes the current live attitude the neutral
// pose: afterwards live * calibration is the identity.
func (s *State) SetCalibrationFromCurrentLive() {
	s.mu.Lock()
	s.calibration = s.live.Inverse()
	s.mu.Unlock()

	s.requestRedraw()
}

// SetCalibration replaces the calibration matrix.
func (s *State) SetCalibration(m math.Mat4) {
	s.mu.Lock()
	s.calibration = m
	s.mu.Unlock()

	s.requestRedraw()
}

// ResolveForFrame returns the attitude to draw this frame. Without
// smoothing it is the live attitude. With smoothing the render matrix moves
// a damped step toward the live attitude and more is true until it arrives.
func (s *State) ResolveForFrame(smooth bool) (current math.Mat4, more bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.live
	s.current[1] = target

	if !smooth {
		s.current[0] = target
		return target, false
	}

	from := math.QuatFromMat4(s.current[0])
	to := math.QuatFromMat4(target)
	if from.Angle(to) <= s.threshold {
		s.current[0] = target
		return target, false
	}

	step := from.Slerp(to, s.damping)
	s.current[0] = step.ToMat4()
	return s.current[0], step.Angle(to) > s.threshold
}

// Calibration returns a copy of the calibration matrix.
func (s *State) Calibration() math.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibration
}

// Live returns a copy of the live attitude.
func (s *State) Live() math.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// ModelMatrix composes a resolved attitude with the calibration.
func (s *State) ModelMatrix(current math.Mat4) math.Mat4 {
	return current.Mul(s.Calibration())
}

func (s *State) requestRedraw() {
	if s.redraw != nil {
		s.redraw.RequestRedraw()
	}
}
