// Package serialport provides a bounded pool of UART handles (§5): a handle
// is checked out before an adapter connects and checked in after it closes,
// and the pool guarantees a checked-out handle is never handed out twice.
// It wraps tarm/serial with that bookkeeping.
package serialport

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// Port abstracts tarm/serial for testability.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// openFunc is overridable in tests.
var openFunc = func(name string, baud int, readTimeout time.Duration) (Port, error) {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	return serial.OpenPort(cfg)
}

// Pool hands out at most one live handle per device name at a time.
type Pool struct {
	mu       sync.Mutex
	checked  map[string]struct{}
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{checked: make(map[string]struct{})}
}

// ErrAlreadyCheckedOut is returned by Checkout when device is already held
// by another caller.
type ErrAlreadyCheckedOut struct{ Device string }

func (e *ErrAlreadyCheckedOut) Error() string {
	return fmt.Sprintf("serialport: %q already checked out", e.Device)
}

// Handle is a checked-out UART port; Close both closes the underlying port
// and returns it to the pool.
type Handle struct {
	Port
	pool   *Pool
	device string
	closeOnce sync.Once
}

// Close closes the underlying port and checks the device back into the
// pool, regardless of close error (the device is no longer in use either
// way). Safe to call more than once.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.Port.Close()
		h.pool.checkin(h.device)
	})
	return err
}

// Checkout opens device at baud and marks it held. It fails with
// ErrAlreadyCheckedOut if another live Handle for the same device exists.
func (p *Pool) Checkout(device string, baud int, readTimeout time.Duration) (*Handle, error) {
	p.mu.Lock()
	if _, held := p.checked[device]; held {
		p.mu.Unlock()
		return nil, &ErrAlreadyCheckedOut{Device: device}
	}
	p.checked[device] = struct{}{}
	p.mu.Unlock()

	port, err := openFunc(device, baud, readTimeout)
	if err != nil {
		p.checkin(device)
		return nil, fmt.Errorf("serialport: open %q: %w", device, err)
	}
	return &Handle{Port: port, pool: p, device: device}, nil
}

func (p *Pool) checkin(device string) {
	p.mu.Lock()
	delete(p.checked, device)
	p.mu.Unlock()
}

// HeldCount reports how many devices are currently checked out (tests).
func (p *Pool) HeldCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.checked)
}

// SetOpenFuncForTest swaps the package-level port-opening function, returning
// the previous one so callers can restore it. Exported for adapter package
// tests that exercise reconnect behavior against a fake Port.
func SetOpenFuncForTest(f func(name string, baud int, readTimeout time.Duration) (Port, error)) func(name string, baud int, readTimeout time.Duration) (Port, error) {
	prev := openFunc
	openFunc = f
	return prev
}
