// Package book defines the format-agnostic content model for a chartbook:
// typed content items, the ordered Collection they live in, and the builder
// operations (Add, AddMany, Merge, ...) used to assemble one.
//
// A Collection is immutable once built: every builder operation returns a
// new Collection value instead of mutating shared state. Field values use
// a three-state model on top of cty.Value (absent, explicit null,
// explicit value) so that default resolution
// order is unambiguous.
//
// The `compile` package is the single consumer of a finished Collection.
package book
