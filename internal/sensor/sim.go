package sensor

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// Earth-like reference vectors in world coordinates (X east, Y north, Z up).
var (
	simGravity  = math.Vec3{Z: 9.81}
	simMagnetic = math.Vec3{Y: 22, Z: -42}
)

// Sim is a synthetic device that spins slowly about the vertical axis while
// rocking back and forth. Gravity and magnetic samples come from two
// independent goroutines at their own rates.
type Sim struct {
	cfg   config.SimConfig
	kinds map[Kind]bool
	start time.Time
	poll  poller
}

// NewSim creates a simulated device. With no kinds it has both sensors.
func NewSim(cfg config.SimConfig, kinds ...Kind) *Sim {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	s := &Sim{
		cfg:   cfg,
		kinds: make(map[Kind]bool, len(kinds)),
		start: time.Now(),
	}
	for _, k := range kinds {
		s.kinds[k] = true
	}
	return s
}

// Has reports whether the simulated device carries the sensor.
func (s *Sim) Has(kind Kind) bool {
	return s.kinds[kind]
}

// Subscribe starts the goroutine for kind.
func (s *Sim) Subscribe(kind Kind, fn func(Sample)) error {
	if !s.Has(kind) {
		return fmt.Errorf("sim: no %s sensor", kind)
	}

	interval, world := s.cfg.GravityInterval, simGravity
	if kind == KindMagnetic {
		interval, world = s.cfg.MagneticInterval, simMagnetic
	}
	if interval <= 0 {
		interval = 60 * time.Millisecond
	}

	s.poll.start(kind, interval, func(now time.Time) (math.Vec3, error) {
		return s.Pose(now.Sub(s.start)).Transpose().TransformDirection(world), nil
	}, fn)
	return nil
}

// Unsubscribe stops the goroutine for kind.
func (s *Sim) Unsubscribe(kind Kind) {
	s.poll.stop(kind)
}

// Pose returns the device-to-world rotation at elapsed time t.
func (s *Sim) Pose(t time.Duration) math.Mat4 {
	sec := t.Seconds()
	yaw := float32(float64(s.cfg.SpinDegPerSec) * sec * gomath.Pi / 180)
	tilt := float32(float64(s.cfg.TiltDeg) * gomath.Sin(sec*0.5) * gomath.Pi / 180)

	return math.RotateAxis(math.Vec3{Z: 1}, yaw).Mul(math.RotateAxis(math.Vec3{X: 1}, tilt))
}
