// Package schema names the HCL surface of a book file: which block types
// exist and which attributes have structural meaning to the compiler
// rather than being item field bindings.
//
// Book files are decoded positionally (block order is insertion order),
// so the heavy lifting lives in the engine package's hclsyntax walk; the
// gohcl-taggable structs here cover the order-independent blocks.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Item block types, mapped to book.Kind by the engine.
const (
	BlockChart     = "chart"
	BlockText      = "text"
	BlockImage     = "image"
	BlockRow       = "row"
	BlockColumn    = "column"
	BlockPageBreak = "page_break"
	BlockControl   = "control"
	BlockSidebar   = "sidebar"
)

// Structural blocks and attributes.
const (
	BlockDefaults = "defaults"
	BlockLabels   = "labels"
	BlockDataset  = "dataset"

	// AttrGroup is the per-item attribute holding the group path as a
	// list of strings. Every other item attribute is a field binding.
	AttrGroup = "group"
)

// ItemBlocks is the closed set of item block types.
var ItemBlocks = map[string]bool{
	BlockChart:     true,
	BlockText:      true,
	BlockImage:     true,
	BlockRow:       true,
	BlockColumn:    true,
	BlockPageBreak: true,
	BlockControl:   true,
	BlockSidebar:   true,
}

// Dataset represents a `dataset "name" {}` block binding a data source to
// the book.
type Dataset struct {
	Name        string   `hcl:"name,label"`
	Path        string   `hcl:"path,optional"`
	Fingerprint string   `hcl:"fingerprint,optional"`
	Body        hcl.Body `hcl:",remain"`
}
