package adapter

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/skywire/mavrelay/internal/logging"
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/router"
	"github.com/skywire/mavrelay/internal/wire"
)

const (
	tcpoutBackoffMin = 20 * time.Millisecond
	tcpoutBackoffMax = 500 * time.Millisecond
	tcpoutReadBufLen = 4096
)

// dialTCPFunc is overridable in tests.
var dialTCPFunc = func(addr string) (net.Conn, error) {
	return net.Dial("tcp", addr)
}

// sleepFn is overridable in tests to exercise the backoff loop without real delays.
var sleepFn = time.Sleep

// TCPOut is the "tcpout" adapter (§4.3): a persistent stream connection to a
// fixed remote address that reconnects with exponential backoff whenever the
// connection drops.
type TCPOut struct {
	key      string
	addr     string
	r        *router.Router
	dispatch wire.Dispatch
	ctx      context.Context
	stop     context.CancelFunc
	done     chan struct{}
}

// DialTCPOut starts the connect-and-reconnect loop against addr (host:port)
// and returns immediately; the connection is established asynchronously.
func DialTCPOut(r *router.Router, dispatch wire.Dispatch, addr string) *TCPOut {
	ctx, cancel := context.WithCancel(context.Background())
	t := &TCPOut{
		key:      "tcpout:" + addr,
		addr:     addr,
		r:        r,
		dispatch: dispatch,
		ctx:      ctx,
		stop:     cancel,
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TCPOut) run() {
	defer close(t.done)
	backoff := tcpoutBackoffMin
	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}
		conn, err := dialTCPFunc(t.addr)
		if err != nil {
			metrics.IncError(mapErrToMetric(fmt.Errorf("%w: %v", ErrDial, err)))
			logging.L().Warn("tcpout_dial_error", "addr", t.addr, "error", err, "backoff", backoff)
			if !t.sleepOrDone(backoff) {
				return
			}
			backoff *= 2
			if backoff > tcpoutBackoffMax {
				backoff = tcpoutBackoffMax
			}
			continue
		}
		backoff = tcpoutBackoffMin
		t.serve(conn)
	}
}

func (t *TCPOut) sleepOrDone(d time.Duration) bool {
	select {
	case <-t.ctx.Done():
		return false
	default:
	}
	sleepFn(d)
	return true
}

func (t *TCPOut) serve(conn net.Conn) {
	tx := NewAsyncTx(t.ctx, 256, func(fr *wire.Frame) error {
		_, err := conn.Write(fr.Raw)
		return err
	}, Hooks[*wire.Frame]{
		OnError: func(fr *wire.Frame, err error) {
			metrics.IncError(mapErrToMetric(fmt.Errorf("%w: %v", ErrWrite, err)))
			logging.L().Warn("tcpout_write_error", "addr", t.addr, "error", err)
		},
		OnAfter: func(fr *wire.Frame) { metrics.IncFrameTx("tcpout") },
		OnDrop:  func(fr *wire.Frame) { metrics.IncDropped(metrics.DropTxOverflow) },
	})
	t.r.AddConnection(router.Connection{Key: t.key, Kind: "tcpout", Send: tx.SendFrame})

	go func() { <-t.ctx.Done(); _ = conn.Close() }()

	reframer := NewReframer(t.dispatch)
	buf := make([]byte, tcpoutReadBufLen)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			reframer.Feed("tcpout", buf[:n], func(fr *wire.Frame, msg any, uerr error) {
				t.r.HandleFrame(t.key, fr, msg, uerr)
			})
		}
		if err != nil {
			break
		}
	}

	tx.Close()
	t.r.RemoveConnection(t.key)
	_ = conn.Close()
	reframer.Reset()
}

// Close stops the reconnect loop and waits for the current connection (if
// any) to be torn down.
func (t *TCPOut) Close() {
	t.stop()
	<-t.done
}
