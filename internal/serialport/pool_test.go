package serialport

import (
	"errors"
	"testing"
	"time"
)

type fakePort struct {
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error)  { return 0, nil }
func (f *fakePort) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakePort) Close() error                { f.closed = true; return nil }

func withFakeOpen(t *testing.T) *fakePort {
	t.Helper()
	fp := &fakePort{}
	orig := openFunc
	openFunc = func(name string, baud int, readTimeout time.Duration) (Port, error) {
		return fp, nil
	}
	t.Cleanup(func() { openFunc = orig })
	return fp
}

func TestCheckout_SecondCheckoutSameDeviceFails(t *testing.T) {
	withFakeOpen(t)
	p := New()
	h, err := p.Checkout("/dev/ttyUSB0", 57600, time.Second)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := p.Checkout("/dev/ttyUSB0", 57600, time.Second); err == nil {
		t.Fatalf("expected second checkout of the same device to fail")
	} else {
		var target *ErrAlreadyCheckedOut
		if !errors.As(err, &target) {
			t.Fatalf("expected ErrAlreadyCheckedOut, got %v", err)
		}
	}
	_ = h.Close()
}

func TestCheckout_AfterCloseDeviceReusable(t *testing.T) {
	fp := withFakeOpen(t)
	p := New()
	h, err := p.Checkout("/dev/ttyUSB0", 57600, time.Second)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fp.closed {
		t.Fatalf("expected underlying port closed")
	}
	if _, err := p.Checkout("/dev/ttyUSB0", 57600, time.Second); err != nil {
		t.Fatalf("expected checkout to succeed after checkin, got %v", err)
	}
	if got := p.HeldCount(); got != 1 {
		t.Fatalf("expected 1 held device, got %d", got)
	}
}

func TestCheckout_DifferentDevicesIndependent(t *testing.T) {
	withFakeOpen(t)
	p := New()
	if _, err := p.Checkout("/dev/ttyUSB0", 57600, time.Second); err != nil {
		t.Fatalf("Checkout A: %v", err)
	}
	if _, err := p.Checkout("/dev/ttyUSB1", 57600, time.Second); err != nil {
		t.Fatalf("Checkout B: %v", err)
	}
	if got := p.HeldCount(); got != 2 {
		t.Fatalf("expected 2 held devices, got %d", got)
	}
}
