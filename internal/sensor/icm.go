package sensor

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/i2c"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/sensor/icm20948"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// imuDevice is the part of the ICM-20948 driver the provider polls.
type imuDevice interface {
	HasMagnetometer() bool
	ReadAccel() (math.Vec3, error)
	ReadMag() (math.Vec3, error)
}

// ICM polls an ICM-20948 accelerometer and its AK09916 magnetometer.
type ICM struct {
	mu       sync.Mutex // the driver keeps per-chip state; reads are serialized
	dev      imuDevice
	bus      *i2c.Bus
	interval time.Duration
	poll     poller
}

// OpenICM20948 opens busPath and configures the chip at addr.
func OpenICM20948(busPath string, addr uint16, interval time.Duration) (*ICM, error) {
	bus, err := i2c.Open(busPath)
	if err != nil {
		return nil, err
	}
	if addr == 0 {
		addr = icm20948.DefaultAddress
	}

	dev, err := icm20948.New(bus.Dev(addr), bus.Dev(icm20948.MagAddress))
	if err != nil {
		bus.Close()
		return nil, err
	}
	if !dev.HasMagnetometer() {
		logger.Warn("icm20948 magnetometer not responding", zap.String("bus", busPath))
	}
	logger.Info("icm20948 found",
		zap.String("bus", busPath),
		zap.String("addr", fmt.Sprintf("0x%02X", addr)),
		zap.Bool("magnetometer", dev.HasMagnetometer()))

	p := newICM(dev, interval)
	p.bus = bus
	return p, nil
}

func newICM(dev imuDevice, interval time.Duration) *ICM {
	if interval <= 0 {
		interval = 60 * time.Millisecond
	}
	return &ICM{dev: dev, interval: interval}
}

// Has reports whether the chip provides kind.
func (p *ICM) Has(kind Kind) bool {
	switch kind {
	case KindGravity:
		return true
	case KindMagnetic:
		return p.dev.HasMagnetometer()
	default:
		return false
	}
}

// Subscribe starts polling kind.
func (p *ICM) Subscribe(kind Kind, fn func(Sample)) error {
	if !p.Has(kind) {
		return fmt.Errorf("icm20948: no %s sensor", kind)
	}
	read := p.dev.ReadAccel
	if kind == KindMagnetic {
		read = p.dev.ReadMag
	}
	p.poll.start(kind, p.interval, func(time.Time) (math.Vec3, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return read()
	}, fn)
	return nil
}

// Unsubscribe stops polling kind.
func (p *ICM) Unsubscribe(kind Kind) {
	p.poll.stop(kind)
}

// Close stops polling and releases the bus.
func (p *ICM) Close() error {
	for _, kind := range Kinds {
		p.poll.stop(kind)
	}
	if p.bus == nil {
		return nil
	}
	return p.bus.Close()
}
