package adapter

import (
	"context"
	"fmt"
	"net"

	"github.com/skywire/mavrelay/internal/logging"
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/router"
	"github.com/skywire/mavrelay/internal/wire"
)

// UDPOut is the "udpout" adapter (§4.3): a single fixed remote peer reached
// by a connected UDP socket. Unlike UDPIn it registers exactly one
// connection for its whole lifetime, since there is only ever one peer.
type UDPOut struct {
	key      string
	conn     *net.UDPConn
	r        *router.Router
	dispatch wire.Dispatch
	tx       *AsyncTx[*wire.Frame]
	ctx      context.Context
	stop     context.CancelFunc
}

// DialUDPOut connects to host:port and registers a connection with r.
func DialUDPOut(r *router.Router, dispatch wire.Dispatch, host string, port int) (*UDPOut, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: udpout %s:%d: %v", ErrDial, host, port, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	key := "udpout:" + addr.String()
	u := &UDPOut{key: key, conn: conn, r: r, dispatch: dispatch, ctx: ctx, stop: cancel}
	u.tx = NewAsyncTx(ctx, 256, func(fr *wire.Frame) error {
		_, err := u.conn.Write(fr.Raw)
		return err
	}, Hooks[*wire.Frame]{
		OnError: func(fr *wire.Frame, err error) {
			metrics.IncError(mapErrToMetric(fmt.Errorf("%w: %v", ErrWrite, err)))
			logging.L().Warn("udpout_write_error", "peer", key, "error", err)
		},
		OnAfter: func(fr *wire.Frame) { metrics.IncFrameTx("udpout") },
		OnDrop:  func(fr *wire.Frame) { metrics.IncDropped(metrics.DropTxOverflow) },
	})
	r.AddConnection(router.Connection{Key: key, Kind: "udpout", Send: u.tx.SendFrame})
	go u.readLoop()
	return u, nil
}

func (u *UDPOut) readLoop() {
	buf := make([]byte, 65535)
	for {
		n, err := u.conn.Read(buf)
		if err != nil {
			select {
			case <-u.ctx.Done():
				return
			default:
			}
			logging.L().Warn("udpout_read_error", "peer", u.key, "error", err)
			return
		}
		if n == 0 {
			continue
		}
		u.handleDatagram(buf[:n])
	}
}

func (u *UDPOut) handleDatagram(data []byte) {
	env, err := wire.ParseEnvelope(data)
	if err != nil {
		metrics.IncDropped(metrics.DropNotAFrame)
		logging.L().Debug("udpout_not_a_frame", "peer", u.key, "error", err)
		return
	}
	fr, msg, uerr := wire.Unpack(data, env, u.dispatch)
	if uerr == wire.ErrFailedCRC {
		metrics.IncDropped(metrics.DropFailedCRC)
		logging.L().Debug("udpout_failed_crc", "peer", u.key)
		return
	}
	metrics.IncFrameRx("udpout")
	if uerr == wire.ErrUnknownMessage {
		metrics.IncUnknownMessage()
	}
	if env.Consumed < len(data) {
		logging.L().Warn("udpout_datagram_trailing_bytes_discarded", "peer", u.key, "discarded", len(data)-env.Consumed)
	}
	u.r.HandleFrame(u.key, fr, msg, uerr)
}

// Close tears down the socket and removes the connection from the router.
func (u *UDPOut) Close() error {
	u.stop()
	u.tx.Close()
	u.r.RemoveConnection(u.key)
	return u.conn.Close()
}
