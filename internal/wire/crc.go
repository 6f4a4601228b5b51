package wire

// X25 implements the CCITT-FALSE-derived, reflected x25 CRC-16 MAVLink uses:
// initial state 0xFFFF, polynomial 0x1021, one byte accumulated at a time.
// This is the same recipe the tritonuas/go-mavlink "x25" package implements
// (x25.New()/Write()/Sum16()) — reproduced here as a pure function so both
// internal/codegen (build time) and the generated dispatch tables (run time)
// share one implementation and can never disagree.

// X25Init returns the initial accumulator state.
func X25Init() uint16 { return 0xFFFF }

// X25Accumulate folds one byte into the running CRC.
func X25Accumulate(crc uint16, b byte) uint16 {
	tmp := b ^ byte(crc&0xFF)
	tmp ^= tmp << 4
	return (crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
}

// X25Bytes accumulates a byte slice onto an existing CRC state.
func X25Bytes(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = X25Accumulate(crc, b)
	}
	return crc
}

// X25String accumulates a string onto an existing CRC state.
func X25String(crc uint16, s string) uint16 {
	for i := 0; i < len(s); i++ {
		crc = X25Accumulate(crc, s[i])
	}
	return crc
}

// FieldCRCSpec describes one non-extension field's contribution to a
// message's CRC_EXTRA, in wire order.
type FieldCRCSpec struct {
	TypeName  string // e.g. "uint8_t", "float", "char"
	FieldName string
	ArrayLen  int // 0 or 1 for scalars; >1 for arrays
}

// MessageCRCExtra implements the §4.1 CRC_EXTRA recipe: seed with the
// message name exactly as given (e.g. "HEARTBEAT") plus a space, then for each non-extension field
// (in wire order) accumulate "<type> ", "<name> ", and — for arrays — the
// single byte array length. The result folds the 16-bit CRC into one byte
// via XOR of its two halves.
func MessageCRCExtra(messageName string, fields []FieldCRCSpec) byte {
	crc := X25Init()
	crc = X25String(crc, messageName)
	crc = X25Accumulate(crc, ' ')
	for _, f := range fields {
		crc = X25String(crc, f.TypeName)
		crc = X25Accumulate(crc, ' ')
		crc = X25String(crc, f.FieldName)
		crc = X25Accumulate(crc, ' ')
		if f.ArrayLen > 1 {
			crc = X25Accumulate(crc, byte(f.ArrayLen))
		}
	}
	return byte(crc&0xFF) ^ byte(crc>>8)
}
