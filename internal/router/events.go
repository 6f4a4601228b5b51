package router

import "github.com/skywire/mavrelay/internal/wire"

// Connection is how an adapter registers itself with the router and how the
// router forwards outbound frames back to it. Send must not block the
// router actor; adapters queue internally (§4.3) and report failures back
// only via a later connDown event, not a return value the router waits on.
type Connection struct {
	Key  string
	Kind string // "udpin", "udpout", "tcpout", "serial"
	Send func(fr *wire.Frame)
}

// frameInEvent reports one structurally-parsed inbound frame. Err is
// ErrUnknownMessage when Msg is nil but Frame is still populated for
// re-broadcast; other non-nil Err values (ErrFailedCRC, ErrNotAFrame) mean
// the frame must be dropped entirely and Frame may be nil.
type frameInEvent struct {
	ConnKey string
	Frame   *wire.Frame
	Msg     any
	Err     error
}

type connUpEvent struct {
	Conn Connection
}

type connDownEvent struct {
	Key string
}

// sendEvent is a locally-originated message entering the dispatch path. The
// router assigns source/sequence per §4.4 before packing.
type sendEvent struct {
	MessageID uint32
	Codec     wire.MessageCodec
	Msg       any
	Version   wire.Version
	Reply     chan error
}

type subscribeEvent struct {
	Sub   Subscription
	Reply chan error
}

type unsubscribeEvent struct {
	ConsumerID string
}

type consumerDiedEvent struct {
	ConsumerID string
}
