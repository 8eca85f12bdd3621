package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

// iioPrefixes maps a kind to its sysfs channel prefix.
var iioPrefixes = map[Kind]string{
	KindGravity:  "in_accel",
	KindMagnetic: "in_magn",
}

// iioChannel reads one 3-axis channel of an IIO device through sysfs.
type iioChannel struct {
	dir    string
	raw    [3]string
	offset [3]float64
	scale  [3]float64
}

// IIO polls accelerometer and magnetometer channels exposed by the Linux
// Industrial I/O subsystem under /sys/bus/iio/devices.
type IIO struct {
	interval time.Duration
	channels map[Kind]*iioChannel
	poll     poller
}

// OpenIIO scans base for IIO devices with accelerometer or magnetometer
// channels. Finding neither is an error; finding one is degraded mode.
func OpenIIO(base string, interval time.Duration) (*IIO, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", base, err)
	}

	if interval <= 0 {
		interval = 60 * time.Millisecond
	}
	p := &IIO{
		interval: interval,
		channels: make(map[Kind]*iioChannel),
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "iio:device") {
			continue
		}
		dir := filepath.Join(base, e.Name())
		for kind, prefix := range iioPrefixes {
			if p.channels[kind] != nil || !fileExists(filepath.Join(dir, prefix+"_x_raw")) {
				continue
			}
			p.channels[kind] = openChannel(dir, prefix)
			logger.Info("iio sensor found",
				zap.Stringer("kind", kind),
				zap.String("device", e.Name()),
				zap.String("name", readName(dir)))
		}
	}

	if len(p.channels) == 0 {
		return nil, fmt.Errorf("no accelerometer or magnetometer under %s", base)
	}
	return p, nil
}

func openChannel(dir, prefix string) *iioChannel {
	ch := &iioChannel{dir: dir}
	shared, hasShared := readFloatIfExists(filepath.Join(dir, prefix+"_scale"))
	sharedOffset, _ := readFloatIfExists(filepath.Join(dir, prefix+"_offset"))

	for i, axis := range []string{"x", "y", "z"} {
		ch.raw[i] = filepath.Join(dir, prefix+"_"+axis+"_raw")

		ch.scale[i] = 1
		if v, ok := readFloatIfExists(filepath.Join(dir, prefix+"_"+axis+"_scale")); ok && v != 0 {
			ch.scale[i] = v
		} else if hasShared && shared != 0 {
			ch.scale[i] = shared
		}

		ch.offset[i] = sharedOffset
		if v, ok := readFloatIfExists(filepath.Join(dir, prefix+"_"+axis+"_offset")); ok {
			ch.offset[i] = v
		}
	}
	return ch
}

// read returns (raw + offset) * scale for each axis.
func (c *iioChannel) read() (math.Vec3, error) {
	var v [3]float32
	for i, path := range c.raw {
		raw, err := readFloat(path)
		if err != nil {
			return math.Vec3{}, err
		}
		v[i] = float32((raw + c.offset[i]) * c.scale[i])
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Has reports whether a channel for kind was found.
func (p *IIO) Has(kind Kind) bool {
	return p.channels[kind] != nil
}

// Subscribe starts polling the channel for kind.
func (p *IIO) Subscribe(kind Kind, fn func(Sample)) error {
	ch := p.channels[kind]
	if ch == nil {
		return fmt.Errorf("iio: no %s channel", kind)
	}
	p.poll.start(kind, p.interval, func(time.Time) (math.Vec3, error) {
		return ch.read()
	}, fn)
	return nil
}

// Unsubscribe stops polling kind.
func (p *IIO) Unsubscribe(kind Kind) {
	p.poll.stop(kind)
}

func readName(dir string) string {
	b, err := os.ReadFile(filepath.Join(dir, "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func readFloat(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", path, s, err)
	}
	return f, nil
}

func readFloatIfExists(path string) (float64, bool) {
	f, err := readFloat(path)
	if err != nil {
		return 0, false
	}
	return f, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
