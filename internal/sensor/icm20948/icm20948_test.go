package icm20948

import (
	"errors"
	gomath "math"
	"testing"
	"time"
)

type fakeRegs struct {
	regs       map[byte][]byte
	writes     []writeOp
	readErrFor map[byte]error
}

type writeOp struct {
	reg byte
	val byte
}

func (f *fakeRegs) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := f.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *fakeRegs) ReadReg(reg byte, dst []byte) error {
	if err := f.readErrFor[reg]; err != nil {
		return err
	}
	b := f.regs[reg]
	if len(b) < len(dst) {
		return errors.New("short reg")
	}
	copy(dst, b)
	return nil
}

func (f *fakeRegs) WriteReg(reg, value byte) error {
	f.writes = append(f.writes, writeOp{reg: reg, val: value})
	return nil
}

func (f *fakeRegs) wrote(reg, val byte) bool {
	for _, w := range f.writes {
		if w.reg == reg && w.val == val {
			return true
		}
	}
	return false
}

func noSleep(t *testing.T) {
	t.Helper()
	old := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = old })
}

func newIMU() *fakeRegs {
	return &fakeRegs{regs: map[byte][]byte{regWhoAmI: {whoAmIVal}}}
}

func newMag() *fakeRegs {
	return &fakeRegs{regs: map[byte][]byte{regMagWIA2: {magWIA2Val}}}
}

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-3
}

func TestNewWhoAmIMismatch(t *testing.T) {
	noSleep(t)
	imu := &fakeRegs{regs: map[byte][]byte{regWhoAmI: {0x00}}}
	if _, err := New(imu, nil); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected an error for a nil device")
	}
}

func TestNewWritesInitRegisters(t *testing.T) {
	noSleep(t)
	imu, mag := newIMU(), newMag()

	d, err := New(imu, mag)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	checks := []struct {
		name     string
		regs     *fakeRegs
		reg, val byte
	}{
		{"reset", imu, regPwrMgmt1, bitReset},
		{"wake", imu, regPwrMgmt1, clockAuto},
		{"accel range", imu, regAccelConfig, fsAccel4g},
		{"bypass", imu, regIntPinCfg, bitBypassEn},
		{"mag continuous", mag, regMagCNTL2, magCont100},
	}
	for _, c := range checks {
		if !c.regs.wrote(c.reg, c.val) {
			t.Errorf("%s: expected write 0x%02X to 0x%02X", c.name, c.val, c.reg)
		}
	}
	if !d.HasMagnetometer() {
		t.Error("expected a magnetometer")
	}
	if d.curBank != 0 {
		t.Errorf("expected bank 0 after init, got %d", d.curBank)
	}
}

func TestNewWithoutMagnetometer(t *testing.T) {
	noSleep(t)
	mag := &fakeRegs{regs: map[byte][]byte{regMagWIA2: {0x00}}}

	d, err := New(newIMU(), mag)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.HasMagnetometer() {
		t.Error("expected accelerometer-only mode")
	}
	if _, err := d.ReadMag(); err == nil {
		t.Error("expected ReadMag to fail")
	}
}

func TestReadAccel(t *testing.T) {
	noSleep(t)
	imu := newIMU()
	d, err := New(imu, nil)
	if err != nil {
		t.Fatal(err)
	}

	// x = +1g (8192), y = -1g (-8192), z = 0
	imu.regs[regAccelXoutH] = []byte{0x20, 0x00, 0xE0, 0x00, 0x00, 0x00}

	v, err := d.ReadAccel()
	if err != nil {
		t.Fatalf("ReadAccel() error = %v", err)
	}
	if !near(v.X, standardGravity) || !near(v.Y, -standardGravity) || !near(v.Z, 0) {
		t.Errorf("ReadAccel() = %+v", v)
	}
}

func TestReadMag(t *testing.T) {
	noSleep(t)
	mag := newMag()
	d, err := New(newIMU(), mag)
	if err != nil {
		t.Fatal(err)
	}

	mag.regs[regMagST1] = []byte{0x00}
	if _, err := d.ReadMag(); err == nil {
		t.Error("expected an error before the first sample")
	}

	// x = 100, y = 200, z = -300 counts, little endian
	mag.regs[regMagST1] = []byte{magDRDY}
	mag.regs[regMagHXL] = []byte{100, 0, 200, 0, 0xD4, 0xFE, 0, 0}

	v, err := d.ReadMag()
	if err != nil {
		t.Fatalf("ReadMag() error = %v", err)
	}
	if !near(v.X, 15) || !near(v.Y, -30) || !near(v.Z, 45) {
		t.Errorf("ReadMag() = %+v", v)
	}

	mag.regs[regMagST1] = []byte{0x00}
	again, err := d.ReadMag()
	if err != nil || again != v {
		t.Errorf("expected the previous reading while not ready, got %+v, %v", again, err)
	}

	mag.regs[regMagST1] = []byte{magDRDY}
	mag.regs[regMagHXL] = []byte{0, 0, 0, 0, 0, 0, 0, magHOFL}
	if _, err := d.ReadMag(); !errors.Is(err, ErrMagOverflow) {
		t.Errorf("expected ErrMagOverflow, got %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	noSleep(t)
	imu, mag := newIMU(), newMag()
	d, err := New(imu, mag)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("bus error")
	imu.readErrFor = map[byte]error{regAccelXoutH: boom}
	mag.readErrFor = map[byte]error{regMagST1: boom}

	if _, err := d.ReadAccel(); !errors.Is(err, boom) {
		t.Errorf("expected wrapped bus error, got %v", err)
	}
	if _, err := d.ReadMag(); !errors.Is(err, boom) {
		t.Errorf("expected wrapped bus error, got %v", err)
	}
}
