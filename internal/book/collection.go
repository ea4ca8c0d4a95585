package book

import (
	"github.com/zclconf/go-cty/cty"
)

// Dataset identifies a bound data source. Fingerprint is a stable content
// hash of the source data supplied by the caller; two datasets with equal
// fingerprints are considered the same data regardless of name.
type Dataset struct {
	Name        string
	Fingerprint string
}

// Collection is an ordered sequence of content items plus the defaults and
// labels that apply to them. The zero value is usable; all builder
// methods return a new Collection and leave the receiver untouched.
type Collection struct {
	items       []Item
	defaults    Fields
	groupLabels map[string]string
	datasets    []Dataset
}

// New creates a collection with the given field defaults. A nil map is
// allowed.
func New(defaults Fields) Collection {
	return Collection{defaults: defaults.Clone()}
}

// Items returns the items in insertion order. The returned slice is the
// collection's own backing store and must not be mutated by callers.
func (c Collection) Items() []Item { return c.items }

// Len returns the number of items, pagination breaks included.
func (c Collection) Len() int { return len(c.items) }

// GroupLabels returns the display-label mapping for group path segments.
func (c Collection) GroupLabels() map[string]string { return c.groupLabels }

// Datasets returns the bound datasets in binding order.
func (c Collection) Datasets() []Dataset { return c.datasets }

// Dataset looks up a bound dataset by name.
func (c Collection) Dataset(name string) (Dataset, bool) {
	for _, ds := range c.datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return Dataset{}, false
}

// clone copies the collection's backing stores so the result can be
// mutated without aliasing the receiver.
func (c Collection) clone() Collection {
	out := Collection{
		items:    make([]Item, len(c.items)),
		defaults: c.defaults.Clone(),
		datasets: append([]Dataset(nil), c.datasets...),
	}
	for i, it := range c.items {
		out.items[i] = it.clone()
	}
	if c.groupLabels != nil {
		out.groupLabels = make(map[string]string, len(c.groupLabels))
		for k, v := range c.groupLabels {
			out.groupLabels[k] = v
		}
	}
	return out
}

// BindDataset registers a data source with the collection. Rebinding an
// existing name replaces it. Deduplication of identical data bound under
// different names happens at Merge time, not here.
func (c Collection) BindDataset(ds Dataset) Collection {
	out := c.clone()
	for i, existing := range out.datasets {
		if existing.Name == ds.Name {
			out.datasets[i] = ds
			return out
		}
	}
	out.datasets = append(out.datasets, ds)
	return out
}

// Add appends one item. Defaults are resolved immediately: an explicit
// value (including an explicit null) wins over the collection default,
// which wins over the kind's built-in default. Unknown kinds and field
// combinations are accepted here and flagged at compile time.
func (c Collection) Add(kind Kind, groupPath []string, fields Fields) Collection {
	out := c.clone()
	out.items = append(out.items, out.newItem(kind, groupPath, fields, len(out.items)+1))
	return out
}

// AddPageBreak appends a pagination break marker. Breaks carry no
// renderable content; they only cut the page sequence at compile time.
func (c Collection) AddPageBreak() Collection {
	return c.Add(KindPageBreak, nil, nil)
}

// SetGroupLabels merges display labels for group path segments into the
// collection. Later calls win on key collision.
func (c Collection) SetGroupLabels(labels map[string]string) Collection {
	out := c.clone()
	if out.groupLabels == nil {
		out.groupLabels = make(map[string]string, len(labels))
	}
	for k, v := range labels {
		out.groupLabels[k] = v
	}
	return out
}

// AddMany appends L items built by zipping vector-valued fields. Every
// field with more than one value must have the same length L > 1;
// single-valued fields broadcast to all L items. A *ValidationError is
// returned when no field is multi-valued or when lengths disagree.
func (c Collection) AddMany(kind Kind, groupPath []string, fields map[string][]cty.Value) (Collection, error) {
	length := 0
	for name, vals := range fields {
		if len(vals) <= 1 {
			continue
		}
		if length == 0 {
			length = len(vals)
			continue
		}
		if len(vals) != length {
			return Collection{}, &ValidationError{
				Field: name,
				Msg:   "multi-valued fields disagree in length",
			}
		}
	}
	if length == 0 {
		return Collection{}, &ValidationError{
			Msg: "AddMany requires at least one field with more than one value",
		}
	}

	out := c.clone()
	for i := 0; i < length; i++ {
		row := make(Fields, len(fields))
		for name, vals := range fields {
			if len(vals) == 1 {
				row[name] = vals[0]
			} else {
				row[name] = vals[i]
			}
		}
		out.items = append(out.items, out.newItem(kind, groupPath, row, len(out.items)+1))
	}
	return out, nil
}

// newItem builds an item with defaults resolved, assigning the given
// insertion index.
func (out Collection) newItem(kind Kind, groupPath []string, fields Fields, index int) Item {
	if kind == KindPageBreak {
		// Break markers carry no renderable content; defaults never
		// apply to them.
		return Item{Kind: kind, Index: index, Fields: Fields{}}
	}
	resolved := fields.Clone()
	for name, v := range out.defaults {
		if _, ok := resolved[name]; !ok {
			resolved[name] = v
		}
	}
	for name, v := range builtinDefaults[kind] {
		if _, ok := resolved[name]; !ok {
			resolved[name] = v
		}
	}
	var gp []string
	if groupPath != nil {
		gp = append([]string(nil), groupPath...)
	}
	return Item{Kind: kind, Index: index, GroupPath: gp, Fields: resolved}
}

// Validate performs the compile-time structural checks that Add
// deliberately skips: unknown kinds and malformed group paths surface
// here with the offending item's insertion index.
func (c Collection) Validate() error {
	for _, it := range c.items {
		if it.Kind <= KindInvalid || it.Kind > KindSidebar {
			return &ValidationError{Index: it.Index, Msg: "unknown item kind"}
		}
		for _, seg := range it.GroupPath {
			if seg == "" {
				return &ValidationError{Index: it.Index, Field: "group", Msg: "group path contains an empty segment"}
			}
		}
		if ref := it.DatasetRef(); ref != "" {
			if _, ok := c.Dataset(ref); !ok {
				return &ValidationError{Index: it.Index, Field: FieldDataset, Msg: "references an unbound dataset"}
			}
		}
		if it.Filter() != "" && it.DatasetRef() == "" {
			return &ValidationError{Index: it.Index, Field: FieldFilter, Msg: "filter set on an item with no dataset"}
		}
	}
	return nil
}
