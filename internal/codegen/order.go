package codegen

import (
	"sort"

	"github.com/skywire/mavrelay/internal/dialect"
	"github.com/skywire/mavrelay/internal/wire"
)

// wireOrder implements the §3/§4.1 ordering invariant: non-extension fields
// sorted by decreasing primitive size (stable, so equal-size fields keep
// their declaration order), followed by extension fields in declaration
// order. It returns the full ordered slice plus the split point.
func wireOrder(fields []dialect.Field) (ordered []dialect.Field, splitAtExtension int) {
	var nonExt, ext []dialect.Field
	for _, f := range fields {
		if f.IsExtension {
			ext = append(ext, f)
		} else {
			nonExt = append(nonExt, f)
		}
	}
	sort.SliceStable(nonExt, func(i, j int) bool {
		return nonExt[i].Type.Size() > nonExt[j].Type.Size()
	})
	ordered = append(ordered, nonExt...)
	ordered = append(ordered, ext...)
	return ordered, len(nonExt)
}

// messageCRCExtra computes CRC_EXTRA over the non-extension fields only, in
// wire order, per the §4.1 recipe.
func messageCRCExtra(name string, nonExtFieldsInWireOrder []dialect.Field) byte {
	specs := make([]wire.FieldCRCSpec, len(nonExtFieldsInWireOrder))
	for i, f := range nonExtFieldsInWireOrder {
		specs[i] = wire.FieldCRCSpec{
			TypeName:  string(f.Type),
			FieldName: f.Name,
			ArrayLen:  f.ArrayLen,
		}
	}
	return wire.MessageCRCExtra(name, specs)
}

// wireSize returns the full (pre-truncation) payload size in bytes for a
// message's fields, counting every element of an array.
func wireSize(fields []dialect.Field) int {
	total := 0
	for _, f := range fields {
		total += f.Type.Size() * f.ArrayLen
	}
	return total
}
