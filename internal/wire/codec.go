package wire

import (
	"encoding/binary"
	"fmt"
)

// MessageCodec bundles everything the envelope codec needs to know about one
// message type: its CRC_EXTRA, its full (pre-truncation) wire size, and
// typed pack/unpack functions operating on the message's concrete Go type
// via the empty interface (the generated dispatch table is keyed by message
// id and returns one of these per entry).
type MessageCodec struct {
	Name     string
	CRCExtra byte
	WireSize int
	Targeted bool

	Pack   func(msg any) ([]byte, error)
	Unpack func(payload []byte) (any, error)
	New    func() any
}

// Dispatch resolves a message id to its codec. The generated dialect
// packages (internal/mavlink/...) satisfy this with a plain map lookup.
type Dispatch interface {
	Lookup(messageID uint32) (MessageCodec, bool)
}

// Header carries the envelope fields the router assigns on local send; the
// message body and its id/codec come from the caller separately.
type Header struct {
	Version         Version
	Sequence        uint8
	SourceSystem    uint8
	SourceComponent uint8
	MessageID       uint32
}

// Pack serializes msg into a full wire frame (magic..crc) using codec to
// produce the payload bytes and hdr for the envelope fields.
func Pack(hdr Header, codec MessageCodec, msg any) (*Frame, error) {
	if codec.Pack == nil {
		return nil, fmt.Errorf("%w: message %q has no pack function", ErrProtocolUndefined, codec.Name)
	}
	payload, err := codec.Pack(msg)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", codec.Name, err)
	}

	var targetSys, targetComp uint8
	if codec.Targeted {
		if t, ok := msg.(Targetable); ok {
			targetSys, targetComp = t.Targets()
		}
	}

	raw := encodeEnvelope(hdr, codec.CRCExtra, payload)

	return &Frame{
		Version:         hdr.Version,
		Sequence:        hdr.Sequence,
		SourceSystem:    hdr.SourceSystem,
		SourceComponent: hdr.SourceComponent,
		MessageID:       hdr.MessageID,
		TargetSystem:    targetSys,
		TargetComponent: targetComp,
		Targeted:        codec.Targeted,
		Target:          resolveTarget(codec.Targeted, targetSys, targetComp),
		Payload:         payload,
		CRCExtra:        codec.CRCExtra,
		Raw:             raw,
	}, nil
}

// encodeEnvelope writes magic|header|payload|crc for the requested version,
// truncating trailing zero bytes from the payload for V2 (§4.1 step 3).
func encodeEnvelope(hdr Header, crcExtra byte, payload []byte) []byte {
	body := payload
	if hdr.Version == V2 {
		body = truncateTrailingZeros(payload)
	}

	var out []byte
	switch hdr.Version {
	case V1:
		out = make([]byte, 0, 1+hdrLenV1+len(body)+crcLen)
		out = append(out, magicV1, byte(len(body)), hdr.Sequence, hdr.SourceSystem, hdr.SourceComponent, byte(hdr.MessageID))
	default: // V2
		out = make([]byte, 0, 1+hdrLenV2+len(body)+crcLen)
		var msgid [3]byte
		msgid[0] = byte(hdr.MessageID)
		msgid[1] = byte(hdr.MessageID >> 8)
		msgid[2] = byte(hdr.MessageID >> 16)
		out = append(out, magicV2, byte(len(body)), 0 /*incompat*/, 0 /*compat*/, hdr.Sequence, hdr.SourceSystem, hdr.SourceComponent)
		out = append(out, msgid[:]...)
	}
	out = append(out, body...)

	crc := X25Bytes(X25Init(), out[1:]) // header bytes excluding magic, plus payload so far
	crc = X25Accumulate(crc, crcExtra)
	var crcBytes [2]byte
	binary.LittleEndian.PutUint16(crcBytes[:], crc)
	out = append(out, crcBytes[:]...)
	return out
}

// truncateTrailingZeros mirrors upstream MAVLink's _mav_trim_payload: it
// trims trailing zero bytes but never below length 1, so an all-zero
// non-empty payload still emits exactly one zero byte.
func truncateTrailingZeros(payload []byte) []byte {
	n := len(payload)
	for n > 1 && payload[n-1] == 0 {
		n--
	}
	return payload[:n]
}

// Envelope is the result of structurally parsing a buffer, before the
// message body has been decoded.
type Envelope struct {
	Version         Version
	Length          int
	Sequence        uint8
	SourceSystem    uint8
	SourceComponent uint8
	MessageID       uint32
	Payload         []byte
	CRC             uint16
	Consumed        int // total bytes consumed from the input buffer
}

// ParseEnvelope checks that buf starts with a magic byte, parses the header that follows,
// and slices out the payload and CRC. It returns ErrNotAFrame if buf does
// not begin with a recognized magic byte, and ErrIncomplete if it does but
// buf is not yet long enough to contain the full frame (the caller should
// retry once more bytes arrive; this never happens for UDP datagrams, which
// are assumed complete).
func ParseEnvelope(buf []byte) (*Envelope, error) {
	if len(buf) == 0 {
		return nil, ErrNotAFrame
	}
	switch buf[0] {
	case magicV1:
		return parseEnvelopeV1(buf)
	case magicV2:
		return parseEnvelopeV2(buf)
	default:
		return nil, ErrNotAFrame
	}
}

func parseEnvelopeV1(buf []byte) (*Envelope, error) {
	if len(buf) < 1+hdrLenV1 {
		return nil, ErrIncomplete
	}
	length := int(buf[1])
	total := 1 + hdrLenV1 + length + crcLen
	if len(buf) < total {
		return nil, ErrIncomplete
	}
	env := &Envelope{
		Version:         V1,
		Length:          length,
		Sequence:        buf[2],
		SourceSystem:    buf[3],
		SourceComponent: buf[4],
		MessageID:       uint32(buf[5]),
		Payload:         buf[1+hdrLenV1 : 1+hdrLenV1+length],
		CRC:             binary.LittleEndian.Uint16(buf[total-crcLen : total]),
		Consumed:        total,
	}
	return env, nil
}

func parseEnvelopeV2(buf []byte) (*Envelope, error) {
	if len(buf) < 1+hdrLenV2 {
		return nil, ErrIncomplete
	}
	length := int(buf[1])
	total := 1 + hdrLenV2 + length + crcLen
	if len(buf) < total {
		return nil, ErrIncomplete
	}
	msgid := uint32(buf[7]) | uint32(buf[8])<<8 | uint32(buf[9])<<16
	env := &Envelope{
		Version:         V2,
		Length:          length,
		Sequence:        buf[4],
		SourceSystem:    buf[5],
		SourceComponent: buf[6],
		MessageID:       msgid,
		Payload:         buf[1+hdrLenV2 : 1+hdrLenV2+length],
		CRC:             binary.LittleEndian.Uint16(buf[total-crcLen : total]),
		Consumed:        total,
	}
	return env, nil
}

// Unpack validates env against the dispatch table and, on success, decodes
// the message body. On ErrUnknownMessage the returned Frame is still
// populated with header fields (suitable for re-broadcast) but msg is nil.
// On ErrFailedCRC the frame should be dropped entirely.
func Unpack(raw []byte, env *Envelope, dispatch Dispatch) (*Frame, any, error) {
	codec, ok := dispatch.Lookup(env.MessageID)
	if !ok {
		return &Frame{
			Version:         env.Version,
			Sequence:        env.Sequence,
			SourceSystem:    env.SourceSystem,
			SourceComponent: env.SourceComponent,
			MessageID:       env.MessageID,
			Payload:         env.Payload,
			Target:          TargetBroadcast,
			Raw:             raw[:env.Consumed],
		}, nil, ErrUnknownMessage
	}

	headerBytes := raw[1 : env.Consumed-crcLen-len(env.Payload)]
	crc := X25Bytes(X25Init(), headerBytes)
	crc = X25Bytes(crc, env.Payload)
	crc = X25Accumulate(crc, codec.CRCExtra)
	if crc != env.CRC {
		return nil, nil, ErrFailedCRC
	}

	payload := env.Payload
	if len(payload) < codec.WireSize {
		padded := make([]byte, codec.WireSize)
		copy(padded, payload)
		payload = padded
	}

	msg, err := codec.Unpack(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack %s: %w", codec.Name, err)
	}

	var targetSys, targetComp uint8
	if codec.Targeted {
		if t, ok := msg.(Targetable); ok {
			targetSys, targetComp = t.Targets()
		}
	}

	fr := &Frame{
		Version:         env.Version,
		Sequence:        env.Sequence,
		SourceSystem:    env.SourceSystem,
		SourceComponent: env.SourceComponent,
		MessageID:       env.MessageID,
		TargetSystem:    targetSys,
		TargetComponent: targetComp,
		Targeted:        codec.Targeted,
		Target:          resolveTarget(codec.Targeted, targetSys, targetComp),
		Payload:         payload,
		CRCExtra:        codec.CRCExtra,
		Raw:             raw[:env.Consumed],
	}
	return fr, msg, nil
}
