package codegen

import "strings"

// pascalCase converts a MAVLink SCREAMING_SNAKE_CASE or snake_case identifier
// into an exported Go identifier, e.g. "VFR_HUD" -> "VfrHud".
func pascalCase(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// fieldGoName is pascalCase, except that the field names "type", "range" and
// "len" get a "Msg" prefix (MsgType, MsgRange, MsgLen).
func fieldGoName(s string) string {
	name := pascalCase(s)
	switch name {
	case "Type":
		return "MsgType"
	case "Range":
		return "MsgRange"
	case "Len":
		return "MsgLen"
	default:
		return name
	}
}
