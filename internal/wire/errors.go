// Package wire implements the MAVLink frame envelope: magic-byte framing,
// the x25 CRC recipe, and pack/unpack of the header+payload+CRC around a
// message body produced by a generated dialect package.
package wire

import "errors"

// Sentinel errors classified per spec error kinds; wrap with fmt.Errorf("%w: ...")
// at call sites so callers can still errors.Is against these.
var (
	// ErrNotAFrame means the buffer did not begin with a recognized magic
	// byte, or was too short to ever contain one.
	ErrNotAFrame = errors.New("not_a_frame")
	// ErrIncomplete means the buffer starts with a valid magic byte but does
	// not yet contain the full declared frame; callers should wait for more
	// bytes before treating this as a resync condition.
	ErrIncomplete = errors.New("incomplete_frame")
	// ErrFailedCRC means the frame parsed structurally but its CRC did not
	// match the recomputed value.
	ErrFailedCRC = errors.New("failed_crc")
	// ErrUnknownMessage means the frame's message id has no entry in the
	// dispatch table; the frame is still structurally valid for forwarding.
	ErrUnknownMessage = errors.New("unknown_message")
	// ErrProtocolUndefined is returned to a Pack caller when asked to encode
	// a value with no registered codec.
	ErrProtocolUndefined = errors.New("protocol_undefined")
)
