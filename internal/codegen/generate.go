// Package codegen turns a parsed dialect.Dialect into a typed Go codec:
// one struct per message, byte-exact Pack/Unpack functions, a CRC_EXTRA
// dispatch table, and enum name<->value lookups. Generate is pure: the same
// Dialect value always produces byte-identical output (§4.2).
package codegen

import (
	"fmt"
	"go/format"
	"sort"
	"strings"

	"github.com/skywire/mavrelay/internal/dialect"
)

// Options configures one generation run.
type Options struct {
	Package string // generated package name, e.g. "common"
}

// generator accumulates output and tracks which optional imports the emitted
// code actually needs, so Generate never emits an unused import.
type generator struct {
	body         strings.Builder
	needsMath    bool
	needsBytes   bool
	needsBinary  bool
}

// Generate renders d into a single formatted Go source file.
func Generate(d *dialect.Dialect, opts Options) ([]byte, error) {
	if opts.Package == "" {
		return nil, fmt.Errorf("codegen: package name required")
	}
	g := &generator{}

	for _, e := range d.Enums {
		g.writeEnum(e)
	}

	type dispatchEntry struct {
		id   uint32
		name string
	}
	var entries []dispatchEntry

	// Sort messages by id for deterministic output independent of XML
	// document order beyond what wire-order/enum-default rules require.
	messages := append([]dialect.Message(nil), d.Messages...)
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })

	for _, m := range messages {
		g.writeMessage(m)
		entries = append(entries, dispatchEntry{id: m.ID, name: m.Name})
	}

	fmt.Fprintf(&g.body, "type dispatchTable map[uint32]wire.MessageCodec\n\n")
	fmt.Fprintf(&g.body, "func (t dispatchTable) Lookup(id uint32) (wire.MessageCodec, bool) {\n\tc, ok := t[id]\n\treturn c, ok\n}\n\n")
	fmt.Fprintf(&g.body, "var Dispatch wire.Dispatch = dispatchTable{\n")
	for _, e := range entries {
		typeName := pascalCase(e.name) + "Message"
		fmt.Fprintf(&g.body, "\t%d: %sCodec,\n", e.id, typeName)
	}
	fmt.Fprintf(&g.body, "}\n")

	var head strings.Builder
	fmt.Fprintf(&head, "// Code generated by mavgen; DO NOT EDIT.\n\n")
	fmt.Fprintf(&head, "package %s\n\n", opts.Package)
	fmt.Fprintf(&head, "import (\n")
	if g.needsBytes {
		fmt.Fprintf(&head, "\t\"bytes\"\n")
	}
	if g.needsBinary {
		fmt.Fprintf(&head, "\t\"encoding/binary\"\n")
	}
	if g.needsMath {
		fmt.Fprintf(&head, "\t\"math\"\n")
	}
	fmt.Fprintf(&head, "\n\t\"github.com/skywire/mavrelay/internal/wire\"\n)\n\n")

	src := head.String() + g.body.String()
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("codegen: format generated source: %w\n--- source ---\n%s", err, src)
	}
	return formatted, nil
}

func (g *generator) writeEnum(e dialect.Enum) {
	b := &g.body
	typeName := pascalCase(e.Name)
	fmt.Fprintf(b, "// %s\n", strings.ReplaceAll(e.Description, "\n", " "))
	fmt.Fprintf(b, "type %s uint32\n\n", typeName)
	fmt.Fprintf(b, "const (\n")
	values := e.EffectiveValues()
	for i, entry := range e.Entries {
		fmt.Fprintf(b, "\t%s %s = %d\n", pascalCase(entry.Name), typeName, values[i])
	}
	fmt.Fprintf(b, ")\n\n")

	fmt.Fprintf(b, "var %sNames = map[uint32]string{\n", typeName)
	for i, entry := range e.Entries {
		fmt.Fprintf(b, "\t%d: %q,\n", values[i], entry.Name)
	}
	fmt.Fprintf(b, "}\n\n")

	fmt.Fprintf(b, "// %sName decodes v to its entry name. Unknown values pass through\n", typeName)
	fmt.Fprintf(b, "// as ok=false; the raw integer remains usable on its own.\n")
	fmt.Fprintf(b, "func %sName(v uint32) (string, bool) {\n\tname, ok := %sNames[v]\n\treturn name, ok\n}\n\n", typeName, typeName)

	fmt.Fprintf(b, "var %sValues = map[string]uint32{\n", typeName)
	for i, entry := range e.Entries {
		fmt.Fprintf(b, "\t%q: %d,\n", entry.Name, values[i])
	}
	fmt.Fprintf(b, "}\n\n")

	fmt.Fprintf(b, "// %sValue encodes a name to its value. Unknown names are an error\n", typeName)
	fmt.Fprintf(b, "// for the caller to raise; this only reports ok=false.\n")
	fmt.Fprintf(b, "func %sValue(name string) (uint32, bool) {\n\tv, ok := %sValues[name]\n\treturn v, ok\n}\n\n", typeName, typeName)
}

func goScalarType(p dialect.Primitive) string {
	switch p {
	case dialect.Int8:
		return "int8"
	case dialect.Uint8, dialect.Char:
		return "uint8"
	case dialect.Int16:
		return "int16"
	case dialect.Uint16:
		return "uint16"
	case dialect.Int32:
		return "int32"
	case dialect.Uint32:
		return "uint32"
	case dialect.Int64:
		return "int64"
	case dialect.Uint64:
		return "uint64"
	case dialect.Float:
		return "float32"
	case dialect.Double:
		return "float64"
	default:
		return "uint8"
	}
}

func isTargeted(fields []dialect.Field) bool {
	var hasSys, hasComp bool
	for _, f := range fields {
		switch f.Name {
		case "target_system":
			hasSys = true
		case "target_component":
			hasComp = true
		}
	}
	return hasSys || hasComp
}

func (g *generator) writeMessage(m dialect.Message) {
	b := &g.body
	typeName := pascalCase(m.Name) + "Message"
	ordered, splitAt := wireOrder(m.Fields)
	nonExt := ordered[:splitAt]
	size := wireSize(ordered)
	crcExtra := messageCRCExtra(m.Name, nonExt)
	targeted := isTargeted(m.Fields)

	fmt.Fprintf(b, "// %s\n", strings.ReplaceAll(m.Description, "\n", " "))
	fmt.Fprintf(b, "type %s struct {\n", typeName)
	for _, f := range m.Fields {
		fmt.Fprintf(b, "\t%s %s\n", fieldGoName(f.Name), goFieldType(f))
		if f.Type == dialect.Char && f.ArrayLen > 1 {
			g.needsBytes = true
		}
		if f.Type == dialect.Float || f.Type == dialect.Double {
			g.needsMath = true
		}
		if f.Type.Size() > 1 && !(f.Type == dialect.Char) {
			g.needsBinary = true
		}
	}
	fmt.Fprintf(b, "}\n\n")

	if targeted {
		fmt.Fprintf(b, "func (m %s) Targets() (systemID, componentID uint8) {\n", typeName)
		sysExpr, compExpr := "0", "0"
		for _, f := range m.Fields {
			if f.Name == "target_system" {
				sysExpr = "uint8(m." + fieldGoName(f.Name) + ")"
			}
			if f.Name == "target_component" {
				compExpr = "uint8(m." + fieldGoName(f.Name) + ")"
			}
		}
		fmt.Fprintf(b, "\treturn %s, %s\n}\n\n", sysExpr, compExpr)
	}

	writePack(b, typeName, ordered)
	writeUnpack(b, typeName, ordered)

	fmt.Fprintf(b, "var %sCodec = wire.MessageCodec{\n", typeName)
	fmt.Fprintf(b, "\tName:     %q,\n", m.Name)
	fmt.Fprintf(b, "\tCRCExtra: %d,\n", crcExtra)
	fmt.Fprintf(b, "\tWireSize: %d,\n", size)
	fmt.Fprintf(b, "\tTargeted: %v,\n", targeted)
	fmt.Fprintf(b, "\tPack: func(msg any) ([]byte, error) { return pack%s(msg.(%s)) },\n", typeName, typeName)
	fmt.Fprintf(b, "\tUnpack: func(payload []byte) (any, error) { return unpack%s(payload) },\n", typeName)
	fmt.Fprintf(b, "\tNew: func() any { return %s{} },\n", typeName)
	fmt.Fprintf(b, "}\n\n")
}

func goFieldType(f dialect.Field) string {
	if f.Type == dialect.Char && f.ArrayLen > 1 {
		return "string"
	}
	scalar := goScalarType(f.Type)
	if f.ArrayLen > 1 {
		return fmt.Sprintf("[%d]%s", f.ArrayLen, scalar)
	}
	return scalar
}

// writePack emits packMessageName(m) ([]byte, error), writing fields in the
// given (already wire-ordered) sequence at their fixed offsets.
func writePack(b *strings.Builder, typeName string, ordered []dialect.Field) {
	fmt.Fprintf(b, "func pack%s(m %s) ([]byte, error) {\n", typeName, typeName)
	fmt.Fprintf(b, "\tbuf := make([]byte, %d)\n", wireSize(ordered))
	offset := 0
	for _, f := range ordered {
		goName := fieldGoName(f.Name)
		elemSize := f.Type.Size()
		if f.Type == dialect.Char && f.ArrayLen > 1 {
			fmt.Fprintf(b, "\t{\n\t\tb := []byte(m.%s)\n\t\tif len(b) > %d {\n\t\t\tb = b[:%d]\n\t\t}\n\t\tcopy(buf[%d:%d], b)\n\t}\n",
				goName, f.ArrayLen, f.ArrayLen, offset, offset+f.ArrayLen)
		} else if f.ArrayLen > 1 {
			for i := 0; i < f.ArrayLen; i++ {
				writeScalarPut(b, fmt.Sprintf("m.%s[%d]", goName, i), f.Type, offset+i*elemSize)
			}
		} else {
			writeScalarPut(b, "m."+goName, f.Type, offset)
		}
		offset += elemSize * f.ArrayLen
	}
	fmt.Fprintf(b, "\treturn buf, nil\n}\n\n")
}

func writeScalarPut(b *strings.Builder, expr string, p dialect.Primitive, offset int) {
	switch p {
	case dialect.Int8, dialect.Uint8, dialect.Char:
		fmt.Fprintf(b, "\tbuf[%d] = uint8(%s)\n", offset, expr)
	case dialect.Int16, dialect.Uint16:
		fmt.Fprintf(b, "\tbinary.LittleEndian.PutUint16(buf[%d:%d], uint16(%s))\n", offset, offset+2, expr)
	case dialect.Int32, dialect.Uint32:
		fmt.Fprintf(b, "\tbinary.LittleEndian.PutUint32(buf[%d:%d], uint32(%s))\n", offset, offset+4, expr)
	case dialect.Int64, dialect.Uint64:
		fmt.Fprintf(b, "\tbinary.LittleEndian.PutUint64(buf[%d:%d], uint64(%s))\n", offset, offset+8, expr)
	case dialect.Float:
		fmt.Fprintf(b, "\tbinary.LittleEndian.PutUint32(buf[%d:%d], math.Float32bits(%s))\n", offset, offset+4, expr)
	case dialect.Double:
		fmt.Fprintf(b, "\tbinary.LittleEndian.PutUint64(buf[%d:%d], math.Float64bits(%s))\n", offset, offset+8, expr)
	}
}

// writeUnpack emits unpackMessageName(payload) (any, error).
func writeUnpack(b *strings.Builder, typeName string, ordered []dialect.Field) {
	fmt.Fprintf(b, "func unpack%s(payload []byte) (any, error) {\n", typeName)
	fmt.Fprintf(b, "\tvar m %s\n", typeName)
	offset := 0
	for _, f := range ordered {
		goName := fieldGoName(f.Name)
		elemSize := f.Type.Size()
		if f.Type == dialect.Char && f.ArrayLen > 1 {
			fmt.Fprintf(b, "\tm.%s = string(bytes.TrimRight(payload[%d:%d], \"\\x00\"))\n",
				goName, offset, offset+f.ArrayLen)
		} else if f.ArrayLen > 1 {
			for i := 0; i < f.ArrayLen; i++ {
				writeScalarGet(b, fmt.Sprintf("m.%s[%d]", goName, i), f.Type, offset+i*elemSize)
			}
		} else {
			writeScalarGet(b, "m."+goName, f.Type, offset)
		}
		offset += elemSize * f.ArrayLen
	}
	fmt.Fprintf(b, "\treturn m, nil\n}\n\n")
}

func writeScalarGet(b *strings.Builder, lhs string, p dialect.Primitive, offset int) {
	switch p {
	case dialect.Uint8, dialect.Char:
		fmt.Fprintf(b, "\t%s = payload[%d]\n", lhs, offset)
	case dialect.Int8:
		fmt.Fprintf(b, "\t%s = int8(payload[%d])\n", lhs, offset)
	case dialect.Uint16:
		fmt.Fprintf(b, "\t%s = binary.LittleEndian.Uint16(payload[%d:%d])\n", lhs, offset, offset+2)
	case dialect.Int16:
		fmt.Fprintf(b, "\t%s = int16(binary.LittleEndian.Uint16(payload[%d:%d]))\n", lhs, offset, offset+2)
	case dialect.Uint32:
		fmt.Fprintf(b, "\t%s = binary.LittleEndian.Uint32(payload[%d:%d])\n", lhs, offset, offset+4)
	case dialect.Int32:
		fmt.Fprintf(b, "\t%s = int32(binary.LittleEndian.Uint32(payload[%d:%d]))\n", lhs, offset, offset+4)
	case dialect.Uint64:
		fmt.Fprintf(b, "\t%s = binary.LittleEndian.Uint64(payload[%d:%d])\n", lhs, offset, offset+8)
	case dialect.Int64:
		fmt.Fprintf(b, "\t%s = int64(binary.LittleEndian.Uint64(payload[%d:%d]))\n", lhs, offset, offset+8)
	case dialect.Float:
		fmt.Fprintf(b, "\t%s = math.Float32frombits(binary.LittleEndian.Uint32(payload[%d:%d]))\n", lhs, offset, offset+4)
	case dialect.Double:
		fmt.Fprintf(b, "\t%s = math.Float64frombits(binary.LittleEndian.Uint64(payload[%d:%d]))\n", lhs, offset, offset+8)
	}
}
