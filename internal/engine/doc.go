// Package engine is the configuration and loading layer: it discovers,
// parses, and decodes HCL book files into the format-agnostic
// book.Collection consumed by the compiler.
//
// Item blocks are decoded in source order because block order is the
// collection's insertion order. Multiple files merge through book.Merge,
// which renumbers insertion indices and deduplicates bound datasets.
package engine
