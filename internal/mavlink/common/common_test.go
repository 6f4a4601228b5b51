package common

import (
	"testing"

	"github.com/skywire/mavrelay/internal/wire"
)

func crcFor(t *testing.T, name string, specs []wire.FieldCRCSpec, want byte) {
	t.Helper()
	got := wire.MessageCRCExtra(name, specs)
	if got != want {
		t.Fatalf("%s: CRC_EXTRA = %d, codec hardcodes %d", name, got, want)
	}
}

func TestCRCExtra_MatchesCodedConstants(t *testing.T) {
	crcFor(t, "HEARTBEAT", []wire.FieldCRCSpec{
		{TypeName: "uint32_t", FieldName: "custom_mode"},
		{TypeName: "uint8_t", FieldName: "type"},
		{TypeName: "uint8_t", FieldName: "autopilot"},
		{TypeName: "uint8_t", FieldName: "base_mode"},
		{TypeName: "uint8_t", FieldName: "system_status"},
		{TypeName: "uint8_t", FieldName: "mavlink_version"},
	}, HeartbeatMessageCodec.CRCExtra)

	crcFor(t, "CHANGE_OPERATOR_CONTROL", []wire.FieldCRCSpec{
		{TypeName: "uint8_t", FieldName: "target_system"},
		{TypeName: "uint8_t", FieldName: "control_request"},
		{TypeName: "uint8_t", FieldName: "version"},
		{TypeName: "char", FieldName: "passkey", ArrayLen: 25},
	}, ChangeOperatorControlMessageCodec.CRCExtra)

	crcFor(t, "PARAM_VALUE", []wire.FieldCRCSpec{
		{TypeName: "float", FieldName: "param_value"},
		{TypeName: "uint16_t", FieldName: "param_count"},
		{TypeName: "uint16_t", FieldName: "param_index"},
		{TypeName: "char", FieldName: "param_id", ArrayLen: 16},
		{TypeName: "uint8_t", FieldName: "param_type"},
	}, ParamValueMessageCodec.CRCExtra)

	crcFor(t, "COMMAND_LONG", []wire.FieldCRCSpec{
		{TypeName: "float", FieldName: "param1"},
		{TypeName: "float", FieldName: "param2"},
		{TypeName: "float", FieldName: "param3"},
		{TypeName: "float", FieldName: "param4"},
		{TypeName: "float", FieldName: "param5"},
		{TypeName: "float", FieldName: "param6"},
		{TypeName: "float", FieldName: "param7"},
		{TypeName: "uint16_t", FieldName: "command"},
		{TypeName: "uint8_t", FieldName: "target_system"},
		{TypeName: "uint8_t", FieldName: "target_component"},
		{TypeName: "uint8_t", FieldName: "confirmation"},
	}, CommandLongMessageCodec.CRCExtra)

	crcFor(t, "VFR_HUD", []wire.FieldCRCSpec{
		{TypeName: "float", FieldName: "airspeed"},
		{TypeName: "float", FieldName: "groundspeed"},
		{TypeName: "float", FieldName: "alt"},
		{TypeName: "float", FieldName: "climb"},
		{TypeName: "int16_t", FieldName: "heading"},
		{TypeName: "uint16_t", FieldName: "throttle"},
	}, VfrHudMessageCodec.CRCExtra)
}

// TestHeartbeat_AllZeroRoundTrip exercises the all-zero HEARTBEAT scenario:
// V2 encoding truncates the payload to its single remaining non-trailing
// zero byte, and decode still recovers all fields as zero.
func TestHeartbeat_AllZeroRoundTrip(t *testing.T) {
	hdr := wire.Header{Version: wire.V2, Sequence: 1, SourceSystem: 1, SourceComponent: 1, MessageID: 0}
	fr, err := wire.Pack(hdr, HeartbeatMessageCodec, HeartbeatMessage{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if fr.Raw[1] != 1 {
		t.Fatalf("expected truncated length 1, got %d", fr.Raw[1])
	}

	env, err := wire.ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	_, msg, err := wire.Unpack(fr.Raw, env, Dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	hb := msg.(HeartbeatMessage)
	if hb != (HeartbeatMessage{}) {
		t.Fatalf("expected all-zero heartbeat, got %+v", hb)
	}
}

func TestVfrHud_RoundTrip(t *testing.T) {
	want := VfrHudMessage{Airspeed: 12.5, Groundspeed: 11.1, Heading: 270, Throttle: 80, Alt: 150.25, Climb: -0.5}
	hdr := wire.Header{Version: wire.V2, MessageID: 74}
	fr, err := wire.Pack(hdr, VfrHudMessageCodec, want)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	env, err := wire.ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	_, msg, err := wire.Unpack(fr.Raw, env, Dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := msg.(VfrHudMessage)
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

// TestChangeOperatorControl_PasskeyTruncation exercises a passkey longer
// than the 25-byte field: Pack silently truncates rather than erroring.
func TestChangeOperatorControl_PasskeyTruncation(t *testing.T) {
	long := "this-passkey-is-far-too-long-to-fit"
	hdr := wire.Header{Version: wire.V2, MessageID: 5}
	fr, err := wire.Pack(hdr, ChangeOperatorControlMessageCodec, ChangeOperatorControlMessage{
		TargetSystem: 1, ControlRequest: 1, Version: 0, Passkey: long,
	})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if fr.Target != wire.TargetSystem {
		t.Fatalf("expected TargetSystem, got %v", fr.Target)
	}
	env, err := wire.ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	_, msg, err := wire.Unpack(fr.Raw, env, Dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := msg.(ChangeOperatorControlMessage)
	if got.Passkey != long[:25] {
		t.Fatalf("expected truncated passkey %q, got %q", long[:25], got.Passkey)
	}
}

func TestCommandLong_TargetsAndRoundTrip(t *testing.T) {
	want := CommandLongMessage{
		TargetSystem: 2, TargetComponent: 1, Command: 400, Confirmation: 0,
		Param1: 1, Param2: 0, Param3: 0, Param4: 0, Param5: 0, Param6: 0, Param7: 0,
	}
	sys, comp := want.Targets()
	if sys != 2 || comp != 1 {
		t.Fatalf("Targets() = %d,%d want 2,1", sys, comp)
	}

	hdr := wire.Header{Version: wire.V2, MessageID: 76}
	fr, err := wire.Pack(hdr, CommandLongMessageCodec, want)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if fr.Target != wire.TargetSystemComponent {
		t.Fatalf("expected TargetSystemComponent, got %v", fr.Target)
	}
	env, err := wire.ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	_, msg, err := wire.Unpack(fr.Raw, env, Dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := msg.(CommandLongMessage)
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestParamValue_RoundTrip(t *testing.T) {
	want := ParamValueMessage{ParamID: "ALT_HOLD_P", ParamValue: 1.5, ParamType: uint8(MavParamTypeReal32), ParamCount: 40, ParamIndex: 3}
	hdr := wire.Header{Version: wire.V2, MessageID: 22}
	fr, err := wire.Pack(hdr, ParamValueMessageCodec, want)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	env, err := wire.ParseEnvelope(fr.Raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	_, msg, err := wire.Unpack(fr.Raw, env, Dispatch)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := msg.(ParamValueMessage)
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}
