//go:build linux

package i2c

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissingBus(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "i2c-9")); err == nil {
		t.Fatal("expected an error for a missing bus")
	}
}

func TestTransferRejectsBadAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i2c-0")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	bus, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer bus.Close()

	for _, addr := range []uint16{0, 0x80} {
		if err := bus.Dev(addr).WriteReg(0x00, 0x01); err == nil {
			t.Errorf("expected an error for address 0x%X", addr)
		}
	}
}

func TestTransferAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i2c-0")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	bus, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	dev := bus.Dev(0x68)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("expected a second Close to be a no-op, got %v", err)
	}
	if _, err := dev.ReadRegU8(0x00); err == nil {
		t.Error("expected an error on a closed bus")
	}
}

func TestTransferOnRegularFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i2c-0")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	bus, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	if _, err := bus.Dev(0x68).ReadRegU8(0x00); err == nil {
		t.Error("expected the ioctl to fail on a regular file")
	}
}
