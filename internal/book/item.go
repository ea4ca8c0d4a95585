package book

import (
	"github.com/zclconf/go-cty/cty"
)

// Kind identifies the variant of a content item. The set is closed:
// compile-time dispatch is an exhaustive switch over these values, so
// adding a kind is a compile-checked change.
type Kind int

const (
	KindInvalid Kind = iota
	KindChart
	KindText
	KindImage
	KindRow
	KindColumn
	KindPageBreak
	KindControl
	KindSidebar
)

// String returns the lowercase name used in logs, chunk names and the HCL
// front-end block types.
func (k Kind) String() string {
	switch k {
	case KindChart:
		return "chart"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindRow:
		return "row"
	case KindColumn:
		return "column"
	case KindPageBreak:
		return "page_break"
	case KindControl:
		return "control"
	case KindSidebar:
		return "sidebar"
	default:
		return "invalid"
	}
}

// Fields is the bag of named values carried by an item. A missing key
// means the field is absent; a cty null means it was explicitly unset by
// the author and must not be filled from defaults.
type Fields map[string]cty.Value

// Clone returns an independent copy of the field map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Item is a single content entry in a Collection.
type Item struct {
	// Kind is the closed variant tag.
	Kind Kind
	// Index is the 1-based insertion index. It is assigned by the owning
	// Collection, renumbered on merge, and never reused within one
	// Collection.
	Index int
	// GroupPath places the item in the tab hierarchy. Nil means the item
	// sits ungrouped at the top level.
	GroupPath []string
	// Fields holds all resolved field bindings, defaults already applied.
	Fields Fields
}

// Well-known field names shared across kinds.
const (
	FieldTitle      = "title"
	FieldDataset    = "dataset"
	FieldFilter     = "filter"
	FieldVisibility = "visibility"
)

// Str returns the string value of a field, or "" when the field is
// absent, null, or not a string.
func (it Item) Str(name string) string {
	v, ok := it.Fields[name]
	if !ok || v == cty.NilVal || v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

// Has reports whether the field carries an explicit non-null value.
func (it Item) Has(name string) bool {
	v, ok := it.Fields[name]
	return ok && v != cty.NilVal && !v.IsNull()
}

// Title returns the item's display title, if any.
func (it Item) Title() string { return it.Str(FieldTitle) }

// Filter returns the raw row-filter expression text, "" when unfiltered.
func (it Item) Filter() string { return it.Str(FieldFilter) }

// Visibility returns the raw visibility condition text, "" when always
// visible.
func (it Item) Visibility() string { return it.Str(FieldVisibility) }

// DatasetRef returns the name of the dataset the item reads from, "" when
// the item is not data-bound.
func (it Item) DatasetRef() string { return it.Str(FieldDataset) }

// clone returns a deep-enough copy: the field map and group path are
// copied, values themselves are immutable cty values.
func (it Item) clone() Item {
	out := it
	out.Fields = it.Fields.Clone()
	if it.GroupPath != nil {
		out.GroupPath = append([]string(nil), it.GroupPath...)
	}
	return out
}

// builtinDefaults are the type-specific fallbacks applied after collection
// defaults. They are intentionally sparse.
var builtinDefaults = map[Kind]Fields{
	KindChart: {
		"width":  cty.NumberIntVal(800),
		"height": cty.NumberIntVal(450),
	},
	KindText: {
		"format": cty.StringVal("markdown"),
	},
}
