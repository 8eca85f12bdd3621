// Package icm20948 drives the accelerometer and the AK09916 magnetometer
// of an ICM-20948 over I2C.
package icm20948

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/gyrosphere/pkg/math"
)

var sleep = time.Sleep

const (
	// DefaultAddress is the ICM-20948 address with AD0 high.
	DefaultAddress = 0x68
	// MagAddress is the fixed AK09916 address, reachable in bypass mode.
	MagAddress = 0x0C

	regBankSel = 0x7F

	// Bank 0.
	regWhoAmI     = 0x00
	whoAmIVal     = 0xEA
	regUserCtrl   = 0x03
	regPwrMgmt1   = 0x06
	regPwrMgmt2   = 0x07
	regIntPinCfg  = 0x0F
	regAccelXoutH = 0x2D
	bitReset      = 0x80
	clockAuto     = 0x01
	bitBypassEn   = 0x02

	// Bank 2.
	bank2           = 2
	regAccelSmplrt2 = 0x11
	regAccelConfig  = 0x14
	fsAccel4g       = 0x02

	// AK09916.
	regMagWIA2  = 0x01
	magWIA2Val  = 0x09
	regMagST1   = 0x10
	regMagHXL   = 0x11
	regMagCNTL2 = 0x31
	regMagCNTL3 = 0x32
	magDRDY     = 0x01
	magHOFL     = 0x08
	magCont100  = 0x08
	magSoftRst  = 0x01

	standardGravity = 9.80665
	accelScale      = 4.0 / 32768.0 * standardGravity // m/s^2 per LSB at +-4g
	magScale        = 0.15                            // uT per LSB
)

// ErrMagOverflow is returned when the magnetometer saturates.
var ErrMagOverflow = errors.New("icm20948: magnetometer overflow")

// RegIO is register access to one I2C device.
type RegIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

// Device is an initialized ICM-20948.
type Device struct {
	imu RegIO
	mag RegIO

	curBank byte
	lastMag math.Vec3
	haveMag bool
}

// New probes and configures the chip. mag may be nil; otherwise the
// magnetometer is probed through I2C bypass and a failure there leaves the
// device accelerometer-only.
func New(imu, mag RegIO) (*Device, error) {
	if imu == nil {
		return nil, errors.New("icm20948: nil device")
	}
	d := &Device{imu: imu, curBank: 0xFF}

	who, err := imu.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("icm20948: whoami read failed: %w", err)
	}
	if who != whoAmIVal {
		return nil, fmt.Errorf("icm20948: whoami=0x%02X want 0x%02X", who, whoAmIVal)
	}
	if err := d.initAccel(); err != nil {
		return nil, err
	}
	if mag != nil {
		if err := d.initMag(mag); err == nil {
			d.mag = mag
		}
	}
	return d, nil
}

func (d *Device) initAccel() error {
	if err := d.setBank(0); err != nil {
		return err
	}
	if err := d.imu.WriteReg(regPwrMgmt1, bitReset); err != nil {
		return fmt.Errorf("icm20948: reset failed: %w", err)
	}
	sleep(100 * time.Millisecond)
	d.curBank = 0 // reset returns to bank 0

	if err := d.imu.WriteReg(regPwrMgmt1, clockAuto); err != nil {
		return fmt.Errorf("icm20948: wake failed: %w", err)
	}
	sleep(10 * time.Millisecond)
	if err := d.imu.WriteReg(regPwrMgmt2, 0x00); err != nil {
		return fmt.Errorf("icm20948: enable sensors failed: %w", err)
	}

	if err := d.setBank(bank2); err != nil {
		return err
	}
	// 1125 Hz / (1 + div), about 50 Hz
	if err := d.imu.WriteReg(regAccelSmplrt2, byte(1125/50-1)); err != nil {
		return fmt.Errorf("icm20948: accel rate failed: %w", err)
	}
	if err := d.imu.WriteReg(regAccelConfig, fsAccel4g); err != nil {
		return fmt.Errorf("icm20948: accel config failed: %w", err)
	}
	return d.setBank(0)
}

func (d *Device) initMag(mag RegIO) error {
	// The AK09916 sits behind the ICM's auxiliary bus; bypass puts it on ours.
	if err := d.imu.WriteReg(regUserCtrl, 0x00); err != nil {
		return fmt.Errorf("icm20948: disable i2c master failed: %w", err)
	}
	if err := d.imu.WriteReg(regIntPinCfg, bitBypassEn); err != nil {
		return fmt.Errorf("icm20948: enable bypass failed: %w", err)
	}

	wia, err := mag.ReadRegU8(regMagWIA2)
	if err != nil {
		return fmt.Errorf("ak09916: whoami read failed: %w", err)
	}
	if wia != magWIA2Val {
		return fmt.Errorf("ak09916: whoami=0x%02X want 0x%02X", wia, magWIA2Val)
	}
	if err := mag.WriteReg(regMagCNTL3, magSoftRst); err != nil {
		return fmt.Errorf("ak09916: reset failed: %w", err)
	}
	sleep(10 * time.Millisecond)
	if err := mag.WriteReg(regMagCNTL2, magCont100); err != nil {
		return fmt.Errorf("ak09916: mode failed: %w", err)
	}
	return nil
}

func (d *Device) setBank(bank byte) error {
	if d.curBank == bank {
		return nil
	}
	if err := d.imu.WriteReg(regBankSel, bank<<4); err != nil {
		return fmt.Errorf("icm20948: set bank %d failed: %w", bank, err)
	}
	d.curBank = bank
	return nil
}

// HasMagnetometer reports whether the AK09916 answered during New.
func (d *Device) HasMagnetometer() bool {
	return d.mag != nil
}

// ReadAccel returns the acceleration in m/s^2. At rest it is the reaction
// to gravity: +Z when the chip lies face up.
func (d *Device) ReadAccel() (math.Vec3, error) {
	if err := d.setBank(0); err != nil {
		return math.Vec3{}, err
	}
	var buf [6]byte
	if err := d.imu.ReadReg(regAccelXoutH, buf[:]); err != nil {
		return math.Vec3{}, fmt.Errorf("icm20948: accel read failed: %w", err)
	}
	return math.Vec3{
		X: float32(int16(buf[0])<<8|int16(buf[1])) * accelScale,
		Y: float32(int16(buf[2])<<8|int16(buf[3])) * accelScale,
		Z: float32(int16(buf[4])<<8|int16(buf[5])) * accelScale,
	}, nil
}

// ReadMag returns the magnetic field in microtesla, in the accelerometer's
// axes. Until new data is ready it returns the previous reading.
func (d *Device) ReadMag() (math.Vec3, error) {
	if d.mag == nil {
		return math.Vec3{}, errors.New("icm20948: no magnetometer")
	}

	st1, err := d.mag.ReadRegU8(regMagST1)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("ak09916: status read failed: %w", err)
	}
	if st1&magDRDY == 0 {
		if d.haveMag {
			return d.lastMag, nil
		}
		return math.Vec3{}, errors.New("ak09916: no data yet")
	}

	// HXL..HZH, a dummy byte, then ST2, which must be read to unlock.
	var buf [8]byte
	if err := d.mag.ReadReg(regMagHXL, buf[:]); err != nil {
		return math.Vec3{}, fmt.Errorf("ak09916: data read failed: %w", err)
	}
	if buf[7]&magHOFL != 0 {
		return math.Vec3{}, ErrMagOverflow
	}

	mx := float32(int16(buf[1])<<8|int16(buf[0])) * magScale
	my := float32(int16(buf[3])<<8|int16(buf[2])) * magScale
	mz := float32(int16(buf[5])<<8|int16(buf[4])) * magScale

	// The AK09916 Y and Z axes point opposite to the accelerometer's.
	d.lastMag = math.Vec3{X: mx, Y: -my, Z: -mz}
	d.haveMag = true
	return d.lastMag, nil
}
