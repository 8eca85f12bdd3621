// Package sensor subscribes to motion sensors and fuses gravity and magnetic
// field samples into device rotations.
package sensor

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// ErrUnknownProvider is returned by NewProvider for an unrecognized name.
var ErrUnknownProvider = errors.New("unknown sensor provider")

// Kind identifies a sensor type.
type Kind int

// Sensor kinds.
const (
	KindGravity Kind = iota
	KindMagnetic
)

// Kinds lists every sensor kind a Source subscribes to.
var Kinds = []Kind{KindGravity, KindMagnetic}

func (k Kind) String() string {
	switch k {
	case KindGravity:
		return "gravity"
	case KindMagnetic:
		return "magnetic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sample is one 3-axis reading in device coordinates.
type Sample struct {
	Kind      Kind
	Values    math.Vec3
	Timestamp time.Time
}

// Provider delivers samples for the sensors present on a device. Callbacks
// run on a goroutine owned by the provider, one per subscribed kind.
type Provider interface {
	// Has reports whether the device has a sensor of the given kind.
	Has(kind Kind) bool
	// Subscribe starts delivering samples of kind to fn, replacing any
	// previous subscription for that kind.
	Subscribe(kind Kind, fn func(Sample)) error
	// Unsubscribe stops delivery for kind. It returns once no callback for
	// kind is running and is a no-op when kind is not subscribed.
	Unsubscribe(kind Kind)
}

// NewProvider creates the provider named in cfg.
func NewProvider(cfg config.SensorConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderSim:
		return NewSim(cfg.Sim), nil
	case config.ProviderIIO:
		p, err := OpenIIO(cfg.IIOPath, cfg.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("open iio sensors: %w", err)
		}
		return p, nil
	case config.ProviderICM20948:
		p, err := OpenICM20948(cfg.I2CBus, cfg.I2CAddress, cfg.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("open icm20948: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
