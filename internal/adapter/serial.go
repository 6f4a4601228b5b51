package adapter

import (
	"context"
	"time"

	"github.com/skywire/mavrelay/internal/logging"
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/router"
	"github.com/skywire/mavrelay/internal/serialport"
	"github.com/skywire/mavrelay/internal/wire"
)

const (
	serialBackoffMin = 20 * time.Millisecond
	serialBackoffMax = 500 * time.Millisecond
	serialReadBufLen = 4096
	serialReadTimeout = 200 * time.Millisecond
)

// Serial is the "serial:" adapter (§4.3): a UART connection checked out of a
// serialport.Pool that reconnects with backoff on read failure, using the
// same exponential-backoff reconnect loop as the tcpout adapter.
type Serial struct {
	key      string
	device   string
	baud     int
	pool     *serialport.Pool
	r        *router.Router
	dispatch wire.Dispatch
	ctx      context.Context
	stop     context.CancelFunc
	done     chan struct{}
}

// OpenSerial starts the checkout-and-reconnect loop for device at baud.
func OpenSerial(r *router.Router, dispatch wire.Dispatch, pool *serialport.Pool, device string, baud int) *Serial {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Serial{
		key:      "serial:" + device,
		device:   device,
		baud:     baud,
		pool:     pool,
		r:        r,
		dispatch: dispatch,
		ctx:      ctx,
		stop:     cancel,
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Serial) run() {
	defer close(s.done)
	backoff := serialBackoffMin
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		h, err := s.pool.Checkout(s.device, s.baud, serialReadTimeout)
		if err != nil {
			metrics.IncError(metrics.ErrSerialRead)
			logging.L().Warn("serial_checkout_error", "device", s.device, "error", err, "backoff", backoff)
			if !s.sleepOrDone(backoff) {
				return
			}
			backoff *= 2
			if backoff > serialBackoffMax {
				backoff = serialBackoffMax
			}
			continue
		}
		backoff = serialBackoffMin
		logging.L().Info("serial_open", "device", s.device, "baud", s.baud)
		s.serve(h)
	}
}

func (s *Serial) sleepOrDone(d time.Duration) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	sleepFn(d)
	return true
}

func (s *Serial) serve(h *serialport.Handle) {
	tx := NewAsyncTx(s.ctx, 256, func(fr *wire.Frame) error {
		_, err := h.Write(fr.Raw)
		return err
	}, Hooks[*wire.Frame]{
		OnError: func(fr *wire.Frame, err error) {
			metrics.IncError(metrics.ErrSerialWrite)
			logging.L().Warn("serial_write_error", "device", s.device, "error", err)
		},
		OnAfter: func(fr *wire.Frame) { metrics.IncFrameTx("serial") },
		OnDrop:  func(fr *wire.Frame) { metrics.IncDropped(metrics.DropTxOverflow) },
	})
	s.r.AddConnection(router.Connection{Key: s.key, Kind: "serial", Send: tx.SendFrame})

	go func() { <-s.ctx.Done(); _ = h.Close() }()

	reframer := NewReframer(s.dispatch)
	buf := make([]byte, serialReadBufLen)
	for {
		n, err := h.Read(buf)
		if n > 0 {
			reframer.Feed("serial", buf[:n], func(fr *wire.Frame, msg any, uerr error) {
				s.r.HandleFrame(s.key, fr, msg, uerr)
			})
		}
		if err != nil {
			break
		}
	}

	tx.Close()
	s.r.RemoveConnection(s.key)
	_ = h.Close()
	reframer.Reset()
}

// Close stops the reconnect loop and releases the currently held handle, if any.
func (s *Serial) Close() {
	s.stop()
	<-s.done
}
