package engine

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/chartbook/internal/book"
	"github.com/vk/chartbook/internal/ctxlog"
	"github.com/vk/chartbook/internal/schema"
)

// blockKinds maps item block types to the model's kind enum.
var blockKinds = map[string]book.Kind{
	schema.BlockChart:     book.KindChart,
	schema.BlockText:      book.KindText,
	schema.BlockImage:     book.KindImage,
	schema.BlockRow:       book.KindRow,
	schema.BlockColumn:    book.KindColumn,
	schema.BlockPageBreak: book.KindPageBreak,
	schema.BlockControl:   book.KindControl,
	schema.BlockSidebar:   book.KindSidebar,
}

// DecodeBookFile parses and decodes a single HCL book file into a
// collection. Structural blocks (defaults, labels, dataset) are applied
// first so that defaults resolve into every item regardless of where the
// blocks sit in the file; item blocks are then added in source order.
func DecodeBookFile(ctx context.Context, filePath string) (book.Collection, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding book file.", "path", filePath)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return book.Collection{}, fmt.Errorf("failed to parse HCL file %s: %s", filePath, diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return book.Collection{}, fmt.Errorf("book file %s is not native HCL syntax", filePath)
	}

	collection, err := decodeStructure(book.New(nil), body)
	if err != nil {
		return book.Collection{}, fmt.Errorf("failed to decode book file %s: %w", filePath, err)
	}

	items := 0
	for _, block := range body.Blocks {
		kind, isItem := blockKinds[block.Type]
		if !isItem {
			continue
		}
		collection, err = decodeItem(collection, kind, block)
		if err != nil {
			return book.Collection{}, fmt.Errorf("failed to decode book file %s: %w", filePath, err)
		}
		items++
	}

	logger.Debug("Successfully decoded book file.", "path", filePath, "items_found", items)
	return collection, nil
}

// decodeStructure applies defaults, labels and dataset blocks, and
// rejects unknown block types up front.
func decodeStructure(collection book.Collection, body *hclsyntax.Body) (book.Collection, error) {
	var defaults book.Fields

	for _, block := range body.Blocks {
		switch {
		case block.Type == schema.BlockDefaults:
			fields, err := evalAttributes(block.Body)
			if err != nil {
				return book.Collection{}, err
			}
			defaults = fields
		case block.Type == schema.BlockLabels:
			fields, err := evalAttributes(block.Body)
			if err != nil {
				return book.Collection{}, err
			}
			labels := make(map[string]string, len(fields))
			for name, v := range fields {
				if v.IsNull() || v.Type() != cty.String {
					return book.Collection{}, fmt.Errorf("label %q at %s must be a string", name, block.DefRange())
				}
				labels[name] = v.AsString()
			}
			collection = collection.SetGroupLabels(labels)
		case block.Type == schema.BlockDataset:
			var ds schema.Dataset
			if diags := gohcl.DecodeBody(block.Body, nil, &ds); diags.HasErrors() {
				return book.Collection{}, fmt.Errorf("invalid dataset block at %s: %s", block.DefRange(), diags.Error())
			}
			fingerprint := ds.Fingerprint
			if fingerprint == "" {
				// Without an explicit fingerprint the source path stands
				// in as the dataset identity.
				fingerprint = ds.Path
			}
			collection = collection.BindDataset(book.Dataset{Name: ds.Name, Fingerprint: fingerprint})
		case blockKinds[block.Type] != book.KindInvalid:
			// Item blocks are handled by the ordered pass.
		default:
			return book.Collection{}, fmt.Errorf("unknown block type %q at %s", block.Type, block.DefRange())
		}
	}

	if defaults != nil {
		// Defaults must be in place before any item is added; rebuild
		// the collection around them.
		rebuilt := book.New(defaults)
		if labels := collection.GroupLabels(); labels != nil {
			rebuilt = rebuilt.SetGroupLabels(labels)
		}
		for _, ds := range collection.Datasets() {
			rebuilt = rebuilt.BindDataset(ds)
		}
		collection = rebuilt
	}
	return collection, nil
}

// decodeItem adds one item block to the collection. The optional block
// label is a title shorthand; the `group` attribute is the group path;
// every other attribute is a field binding.
func decodeItem(collection book.Collection, kind book.Kind, block *hclsyntax.Block) (book.Collection, error) {
	if kind == book.KindPageBreak {
		return collection.AddPageBreak(), nil
	}

	fields, err := evalAttributes(block.Body)
	if err != nil {
		return book.Collection{}, err
	}

	if len(block.Labels) > 0 {
		if _, explicit := fields[book.FieldTitle]; !explicit {
			fields[book.FieldTitle] = cty.StringVal(block.Labels[0])
		}
	}

	var group []string
	if v, ok := fields[schema.AttrGroup]; ok {
		delete(fields, schema.AttrGroup)
		group, err = pathFromValue(v)
		if err != nil {
			return book.Collection{}, fmt.Errorf("invalid group on %s block at %s: %w", block.Type, block.DefRange(), err)
		}
	}

	return collection.Add(kind, group, fields), nil
}

// evalAttributes statically evaluates every attribute of a body. Book
// files carry literal values only; there is no variable scope.
func evalAttributes(body hcl.Body) (book.Fields, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid attributes: %s", diags.Error())
	}

	fields := make(book.Fields, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for %q at %s: %s", name, attr.Range, diags.Error())
		}
		fields[name] = v
	}
	return fields, nil
}

// pathFromValue converts a group attribute value to path segments.
func pathFromValue(v cty.Value) ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsTupleType() && !v.Type().IsListType() {
		return nil, fmt.Errorf("must be a list of strings")
	}
	var path []string
	for _, elem := range v.AsValueSlice() {
		if elem.IsNull() || elem.Type() != cty.String {
			return nil, fmt.Errorf("must be a list of strings")
		}
		path = append(path, elem.AsString())
	}
	return path, nil
}
