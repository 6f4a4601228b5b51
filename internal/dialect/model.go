// Package dialect holds the structured model a MAVLink XML dialect file is
// parsed into (§3), plus the thin encoding/xml adapter that produces it. The
// spec treats the on-disk XML parser as an external collaborator specified
// only at its interface; encoding/xml is the standard library's XML reader,
// used here only to satisfy that boundary (see DESIGN.md).
package dialect

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dialect is the root of a parsed MAVLink dialect description.
type Dialect struct {
	Version   uint8
	DialectID uint8
	Enums     []Enum
	Messages  []Message
}

// Enum is a named set of integer entries, optionally carrying command
// parameter descriptions (MAV_CMD-style enums).
type Enum struct {
	Name        string
	Description string
	Entries     []Entry
}

// Entry is one enum value. Value is nil when the XML omitted it; the caller
// must resolve the default (§3: one greater than the previous entry's
// effective value, or 0 for the first).
type Entry struct {
	Name        string
	Value       *uint32
	Description string
	Params      []Param
}

// EffectiveValues resolves the default-value rule over e's entries in
// declaration order, returning one resolved uint32 per entry.
func (e Enum) EffectiveValues() []uint32 {
	out := make([]uint32, len(e.Entries))
	var next uint32
	for i, entry := range e.Entries {
		if entry.Value != nil {
			out[i] = *entry.Value
			next = *entry.Value + 1
			continue
		}
		out[i] = next
		next++
	}
	return out
}

// Param describes one MAV_CMD-style command parameter (index 1..7).
type Param struct {
	Index       int
	Label       string
	Units       string
	Min         string
	Max         string
	Description string
}

// Message describes one MAVLink message and its fields in declaration order
// (wire reordering is computed later, by internal/codegen).
type Message struct {
	ID          uint32
	Name        string
	Description string
	Fields      []Field
}

// Primitive enumerates the scalar wire types a Field may declare.
type Primitive string

const (
	Int8    Primitive = "int8_t"
	Uint8   Primitive = "uint8_t"
	Int16   Primitive = "int16_t"
	Uint16  Primitive = "uint16_t"
	Int32   Primitive = "int32_t"
	Uint32  Primitive = "uint32_t"
	Int64   Primitive = "int64_t"
	Uint64  Primitive = "uint64_t"
	Char    Primitive = "char"
	Float   Primitive = "float"
	Double  Primitive = "double"
)

// Size returns the primitive's size in bytes on the wire.
func (p Primitive) Size() int {
	switch p {
	case Int8, Uint8, Char:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Int64, Uint64, Double:
		return 8
	default:
		return 0
	}
}

// Field is one member of a Message.
type Field struct {
	Name        string
	Type        Primitive
	ArrayLen    int // 1 for scalars, 2..255 for arrays
	EnumRef     string
	Units       string
	IsExtension bool
	Description string
}

// --- XML adapter -----------------------------------------------------------

type xmlMavlink struct {
	XMLName xml.Name    `xml:"mavlink"`
	Version uint8       `xml:"version"`
	Dialect uint8       `xml:"dialect"`
	Enums   xmlEnums    `xml:"enums"`
	Messages xmlMessages `xml:"messages"`
}

type xmlEnums struct {
	Enum []xmlEnum `xml:"enum"`
}

type xmlEnum struct {
	Name        string     `xml:"name,attr"`
	Description string     `xml:"description"`
	Entry       []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Name        string     `xml:"name,attr"`
	Value       string     `xml:"value,attr"`
	Description string     `xml:"description"`
	Param       []xmlParam `xml:"param"`
}

type xmlParam struct {
	Index       int    `xml:"index,attr"`
	Label       string `xml:"label,attr"`
	Units       string `xml:"units,attr"`
	Min         string `xml:"minValue,attr"`
	Max         string `xml:"maxValue,attr"`
	Description string `xml:",chardata"`
}

type xmlMessages struct {
	Message []xmlMessage `xml:"message"`
}

type xmlMessage struct {
	ID          uint32       `xml:"id,attr"`
	Name        string       `xml:"name,attr"`
	Description string       `xml:"description"`
	Fields      []xmlElement `xml:",any"`
}

// xmlElement captures both <field> and <extensions/> children in document
// order, since §6 requires fields after <extensions/> be flagged as
// extensions regardless of how many there are.
type xmlElement struct {
	XMLName xml.Name
	Type    string `xml:"type,attr"`
	Name    string `xml:"name,attr"`
	EnumRef string `xml:"enum,attr"`
	Units   string `xml:"units,attr"`
}

// Parse reads a MAVLink dialect XML document and returns its structured
// model. It performs no semantic validation beyond what is needed to build
// the model (enum values, field primitive types and array lengths).
func Parse(r io.Reader) (*Dialect, error) {
	var doc xmlMavlink
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse dialect xml: %w", err)
	}

	d := &Dialect{Version: doc.Version, DialectID: doc.Dialect}
	for _, e := range doc.Enums.Enum {
		enum := Enum{Name: e.Name, Description: strings.TrimSpace(e.Description)}
		for _, en := range e.Entry {
			entry := Entry{Name: en.Name, Description: strings.TrimSpace(en.Description)}
			if en.Value != "" {
				v, err := parseEnumValue(en.Value)
				if err != nil {
					return nil, fmt.Errorf("enum %s entry %s: %w", e.Name, en.Name, err)
				}
				entry.Value = &v
			}
			for _, p := range en.Param {
				entry.Params = append(entry.Params, Param{
					Index:       p.Index,
					Label:       p.Label,
					Units:       p.Units,
					Min:         p.Min,
					Max:         p.Max,
					Description: strings.TrimSpace(p.Description),
				})
			}
			enum.Entries = append(enum.Entries, entry)
		}
		d.Enums = append(d.Enums, enum)
	}

	for _, m := range doc.Messages.Message {
		msg := Message{ID: m.ID, Name: m.Name, Description: strings.TrimSpace(m.Description)}
		extending := false
		for _, el := range m.Fields {
			switch el.XMLName.Local {
			case "extensions":
				extending = true
			case "field":
				typ, arrLen, err := parseFieldType(el.Type)
				if err != nil {
					return nil, fmt.Errorf("message %s field %s: %w", m.Name, el.Name, err)
				}
				msg.Fields = append(msg.Fields, Field{
					Name:        el.Name,
					Type:        typ,
					ArrayLen:    arrLen,
					EnumRef:     el.EnumRef,
					Units:       el.Units,
					IsExtension: extending,
				})
			}
		}
		d.Messages = append(d.Messages, msg)
	}
	return d, nil
}

func parseEnumValue(s string) (uint32, error) {
	// Some dialects write hex ("0x10"); ParseUint with base 0 handles both.
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid enum value %q: %w", s, err)
	}
	return uint32(v), nil
}

// parseFieldType splits a declared type like "uint8_t[16]" into its
// primitive and array length (1 for scalars).
func parseFieldType(raw string) (Primitive, int, error) {
	name := raw
	arrayLen := 1
	if i := strings.IndexByte(raw, '['); i >= 0 {
		if !strings.HasSuffix(raw, "]") {
			return "", 0, fmt.Errorf("malformed array type %q", raw)
		}
		name = raw[:i]
		n, err := strconv.Atoi(raw[i+1 : len(raw)-1])
		if err != nil {
			return "", 0, fmt.Errorf("malformed array length in %q: %w", raw, err)
		}
		if n < 1 || n > 255 {
			return "", 0, fmt.Errorf("array length %d out of range 1..255", n)
		}
		arrayLen = n
	}
	p := Primitive(name)
	if p.Size() == 0 {
		return "", 0, fmt.Errorf("unknown primitive type %q", name)
	}
	return p, arrayLen, nil
}
