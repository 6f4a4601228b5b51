package wire

import (
	"bytes"
	"testing"
)

// pingMsg is a tiny fixture message (not a real MAVLink message) used only to
// exercise the envelope codec independent of the generated dialect.
type pingMsg struct {
	Count uint32
	Flag  uint8
}

func pingDispatch() Dispatch {
	crcExtra := MessageCRCExtra("PING", []FieldCRCSpec{
		{TypeName: "uint32_t", FieldName: "count"},
		{TypeName: "uint8_t", FieldName: "flag"},
	})
	codec := MessageCodec{
		Name:     "PING",
		CRCExtra: crcExtra,
		WireSize: 5,
		Pack: func(m any) ([]byte, error) {
			p := m.(pingMsg)
			b := make([]byte, 5)
			b[0] = byte(p.Count)
			b[1] = byte(p.Count >> 8)
			b[2] = byte(p.Count >> 16)
			b[3] = byte(p.Count >> 24)
			b[4] = p.Flag
			return b, nil
		},
		Unpack: func(payload []byte) (any, error) {
			return pingMsg{
				Count: uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24,
				Flag:  payload[4],
			}, nil
		},
	}
	return fakeDispatch{1: codec}
}

type fakeDispatch map[uint32]MessageCodec

func (d fakeDispatch) Lookup(id uint32) (MessageCodec, bool) {
	c, ok := d[id]
	return c, ok
}

func TestPackUnpack_RoundTripV2(t *testing.T) {
	dispatch := pingDispatch()
	codec, _ := dispatch.Lookup(1)
	hdr := Header{Version: V2, Sequence: 7, SourceSystem: 240, SourceComponent: 1, MessageID: 1}
	fr, err := Pack(hdr, codec, pingMsg{Count: 42, Flag: 1})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	env, err := ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	gotFr, gotMsg, err := Unpack(fr.Raw, env, dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := gotMsg.(pingMsg)
	if got.Count != 42 || got.Flag != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if gotFr.SourceSystem != 240 || gotFr.SourceComponent != 1 || gotFr.Sequence != 7 {
		t.Fatalf("envelope mismatch: %+v", gotFr)
	}
}

func TestPack_V2TruncatesTrailingZeros(t *testing.T) {
	dispatch := pingDispatch()
	codec, _ := dispatch.Lookup(1)
	hdr := Header{Version: V2, MessageID: 1}
	fr, err := Pack(hdr, codec, pingMsg{Count: 0, Flag: 0})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if fr.Raw[1] != 1 {
		t.Fatalf("expected truncated length byte 1 (trim floor), got %d", fr.Raw[1])
	}

	env, err := ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	gotFr, gotMsg, err := Unpack(fr.Raw, env, dispatch)
	if err != nil {
		t.Fatalf("Unpack after truncation: %v", err)
	}
	got := gotMsg.(pingMsg)
	if got.Count != 0 || got.Flag != 0 {
		t.Fatalf("zero-extension recovery mismatch: %+v", got)
	}
	if len(gotFr.Payload) != codec.WireSize {
		t.Fatalf("payload not zero-extended to wire size: got %d want %d", len(gotFr.Payload), codec.WireSize)
	}
}

func TestUnpack_FailedCRC(t *testing.T) {
	dispatch := pingDispatch()
	codec, _ := dispatch.Lookup(1)
	hdr := Header{Version: V2, MessageID: 1}
	fr, err := Pack(hdr, codec, pingMsg{Count: 1, Flag: 1})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	corrupt := bytes.Clone(fr.Raw)
	corrupt[len(corrupt)-1] ^= 0xFF

	env, err := ParseEnvelope(corrupt)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if _, _, err := Unpack(corrupt, env, dispatch); err != ErrFailedCRC {
		t.Fatalf("expected ErrFailedCRC, got %v", err)
	}
}

func TestUnpack_UnknownMessageStillForwardable(t *testing.T) {
	dispatch := pingDispatch()
	codec, _ := dispatch.Lookup(1)
	hdr := Header{Version: V2, MessageID: 99, SourceSystem: 3, SourceComponent: 1}
	fr, err := Pack(hdr, codec, pingMsg{Count: 1})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	env, err := ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	gotFr, gotMsg, err := Unpack(fr.Raw, env, dispatch)
	if err != ErrUnknownMessage {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
	if gotMsg != nil {
		t.Fatalf("expected nil message for unknown id")
	}
	if gotFr.SourceSystem != 3 || gotFr.SourceComponent != 1 {
		t.Fatalf("expected header fields preserved for forwarding: %+v", gotFr)
	}
}

func TestParseEnvelope_RejectsBadMagic(t *testing.T) {
	if _, err := ParseEnvelope([]byte{0x00, 0x01, 0x02}); err != ErrNotAFrame {
		t.Fatalf("expected ErrNotAFrame, got %v", err)
	}
}

func TestParseEnvelope_IncompleteWaitsForMoreBytes(t *testing.T) {
	dispatch := pingDispatch()
	codec, _ := dispatch.Lookup(1)
	hdr := Header{Version: V2, MessageID: 1}
	fr, err := Pack(hdr, codec, pingMsg{Count: 7, Flag: 1})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := ParseEnvelope(fr.Raw[:len(fr.Raw)-1]); err != ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestPackUnpack_V1(t *testing.T) {
	dispatch := pingDispatch()
	codec, _ := dispatch.Lookup(1)
	hdr := Header{Version: V1, Sequence: 3, SourceSystem: 1, SourceComponent: 1, MessageID: 1}
	fr, err := Pack(hdr, codec, pingMsg{Count: 99, Flag: 1})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if fr.Raw[0] != magicV1 {
		t.Fatalf("expected v1 magic, got 0x%X", fr.Raw[0])
	}
	env, err := ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	_, gotMsg, err := Unpack(fr.Raw, env, dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := gotMsg.(pingMsg)
	if got.Count != 99 || got.Flag != 1 {
		t.Fatalf("v1 round trip mismatch: %+v", got)
	}
}
