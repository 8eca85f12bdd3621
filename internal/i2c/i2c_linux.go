//go:build linux

// Package i2c talks to register-based devices on Linux /dev/i2c-* buses.
package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Register reads use I2C_RDWR so the write of the register address and the
// read of its value share one transaction with a repeated start.
const (
	flagRead  = 0x0001 // I2C_M_RD
	ioctlRdwr = 0x0707 // I2C_RDWR
)

// message mirrors struct i2c_msg.
type message struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// rdwrData mirrors struct i2c_rdwr_ioctl_data.
type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened I2C bus. Transfers from every Dev on the bus are
// serialized.
type Bus struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Open opens a bus device such as /dev/i2c-1.
func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &Bus{f: f, path: path}, nil
}

// Path returns the bus device path.
func (b *Bus) Path() string {
	return b.path
}

// Close closes the bus. Devs created from it stop working.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// Dev returns the device at a 7-bit address.
func (b *Bus) Dev(addr uint16) *Dev {
	return &Dev{bus: b, addr: addr}
}

// Dev is a device at a 7-bit address on a Bus.
type Dev struct {
	bus  *Bus
	addr uint16
}

// ReadReg reads len(dst) bytes starting at reg.
func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.transfer([]byte{reg}, dst)
}

// ReadRegU8 reads one register.
func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteReg writes one register.
func (d *Dev) WriteReg(reg, value byte) error {
	return d.transfer([]byte{reg, value}, nil)
}

func (d *Dev) transfer(w, r []byte) error {
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("invalid i2c address 0x%X", d.addr)
	}

	msgs := make([]message, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, message{addr: d.addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, message{addr: d.addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return nil
	}
	data := rdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}

	d.bus.mu.Lock()
	defer d.bus.mu.Unlock()
	if d.bus.f == nil {
		return errors.New("i2c bus closed")
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.f.Fd(), ioctlRdwr, uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return fmt.Errorf("i2c transfer to 0x%02X on %s: %w", d.addr, d.bus.path, errno)
	}
	return nil
}
