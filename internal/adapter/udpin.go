package adapter

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/skywire/mavrelay/internal/logging"
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/router"
	"github.com/skywire/mavrelay/internal/wire"
)

// UDPIn is the "udpin" adapter (§4.3): a single bound socket serving
// multiple peers, each keyed into its own routable connection the first
// time a datagram arrives from it. The listener socket itself is never
// registered as a connection, so a broadcast never loops back through it.
type UDPIn struct {
	conn     *net.UDPConn
	r        *router.Router
	dispatch wire.Dispatch

	mu    sync.Mutex
	peers map[string]*udpPeer
	ctx   context.Context
	stop  context.CancelFunc
}

type udpPeer struct {
	key string
	tx  *AsyncTx[*wire.Frame]
}

// ListenUDPIn binds host:port and starts the read loop.
func ListenUDPIn(r *router.Router, dispatch wire.Dispatch, host string, port int) (*UDPIn, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: udpin %s:%d: %v", ErrListen, host, port, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	u := &UDPIn{
		conn:     conn,
		r:        r,
		dispatch: dispatch,
		peers:    make(map[string]*udpPeer),
		ctx:      ctx,
		stop:     cancel,
	}
	go u.readLoop()
	return u, nil
}

func (u *UDPIn) readLoop() {
	buf := make([]byte, 65535)
	for {
		n, addr, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-u.ctx.Done():
				return
			default:
			}
			logging.L().Warn("udpin_read_error", "error", err)
			return
		}
		if n == 0 {
			continue
		}
		u.handleDatagram(addr, buf[:n])
	}
}

func (u *UDPIn) handleDatagram(addr *net.UDPAddr, data []byte) {
	peerKey := "udpin:" + addr.String()

	u.mu.Lock()
	peer, ok := u.peers[peerKey]
	if !ok {
		peer = u.newPeer(peerKey, addr)
		u.peers[peerKey] = peer
		u.r.AddConnection(router.Connection{Key: peerKey, Kind: "udpin", Send: peer.tx.SendFrame})
	}
	u.mu.Unlock()

	env, err := wire.ParseEnvelope(data)
	if err != nil {
		metrics.IncDropped(metrics.DropNotAFrame)
		logging.L().Debug("udpin_not_a_frame", "peer", peerKey, "error", err)
		return
	}
	fr, msg, uerr := wire.Unpack(data, env, u.dispatch)
	if uerr == wire.ErrFailedCRC {
		metrics.IncDropped(metrics.DropFailedCRC)
		logging.L().Debug("udpin_failed_crc", "peer", peerKey)
		return
	}
	metrics.IncFrameRx("udpin")
	if uerr == wire.ErrUnknownMessage {
		metrics.IncUnknownMessage()
	}
	if env.Consumed < len(data) {
		logging.L().Warn("udpin_datagram_trailing_bytes_discarded", "peer", peerKey, "discarded", len(data)-env.Consumed)
	}
	u.r.HandleFrame(peerKey, fr, msg, uerr)
}

func (u *UDPIn) newPeer(key string, addr *net.UDPAddr) *udpPeer {
	tx := NewAsyncTx(u.ctx, 256, func(fr *wire.Frame) error {
		_, err := u.conn.WriteToUDP(fr.Raw, addr)
		return err
	}, Hooks[*wire.Frame]{
		OnError: func(fr *wire.Frame, err error) {
			logging.L().Warn("udpin_write_error", "peer", key, "error", err)
		},
		OnAfter: func(fr *wire.Frame) { metrics.IncFrameTx("udpin") },
		OnDrop:  func(fr *wire.Frame) { metrics.IncDropped(metrics.DropTxOverflow) },
	})
	return &udpPeer{key: key, tx: tx}
}

// Close shuts down the listener and every peer's async sender, and removes
// every peer connection from the router.
func (u *UDPIn) Close() error {
	u.stop()
	u.mu.Lock()
	defer u.mu.Unlock()
	for key, peer := range u.peers {
		peer.tx.Close()
		u.r.RemoveConnection(key)
	}
	return u.conn.Close()
}
