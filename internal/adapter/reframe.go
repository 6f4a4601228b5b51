package adapter

import (
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/wire"
)

// Reframer re-synchronizes a byte stream transport (TCP, serial) on magic
// bytes and extracts complete frames from it (§4.3). UDP adapters don't
// need this since a datagram is assumed to carry exactly one frame, but
// they can still use it opportunistically to validate framing.
type Reframer struct {
	buf      []byte
	dispatch wire.Dispatch
}

// NewReframer creates a Reframer that decodes against dispatch.
func NewReframer(dispatch wire.Dispatch) *Reframer {
	return &Reframer{dispatch: dispatch}
}

// Feed appends chunk to the internal buffer and invokes onFrame once per
// successfully-framed, CRC-valid message, and also once per unknown-message
// frame (whose CRC cannot be checked without its CRC_EXTRA; err is
// wire.ErrUnknownMessage and msg is nil). Frames that fail CRC
// are silently dropped (§7); byte sequences that never resolve to a valid
// magic byte are discarded one byte at a time until the buffer resyncs.
func (r *Reframer) Feed(adapterKind string, chunk []byte, onFrame func(fr *wire.Frame, msg any, err error)) {
	r.buf = append(r.buf, chunk...)
	for len(r.buf) > 0 {
		env, err := wire.ParseEnvelope(r.buf)
		switch err {
		case nil:
			fr, msg, uerr := wire.Unpack(r.buf, env, r.dispatch)
			r.buf = r.buf[env.Consumed:]
			if uerr == wire.ErrFailedCRC {
				metrics.IncDropped(metrics.DropFailedCRC)
				continue
			}
			metrics.IncFrameRx(adapterKind)
			if uerr == wire.ErrUnknownMessage {
				metrics.IncUnknownMessage()
			}
			onFrame(fr, msg, uerr)
		case wire.ErrIncomplete:
			return
		default: // wire.ErrNotAFrame
			metrics.IncDropped(metrics.DropNotAFrame)
			r.buf = r.buf[1:]
		}
	}
}

// Reset discards any buffered partial frame, used when the underlying
// connection is closed and reopened.
func (r *Reframer) Reset() {
	r.buf = r.buf[:0]
}
