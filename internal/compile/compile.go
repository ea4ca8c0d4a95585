// Package compile runs the whole pipeline over a finished collection:
// validate, resolve dataset views, compile visibility conditions, split
// pages, assemble tab hierarchies, derive chunk names, hash each output
// unit and classify it against the previous build's manifest.
//
// Compilation is single-threaded and synchronous, one pass over an
// immutable collection. Pages in the result are independent and
// side-effect-free, so callers may render them in any order or in
// parallel.
package compile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vk/chartbook/internal/book"
	"github.com/vk/chartbook/internal/condition"
	"github.com/vk/chartbook/internal/ctxlog"
	"github.com/vk/chartbook/internal/dedup"
	"github.com/vk/chartbook/internal/incremental"
	"github.com/vk/chartbook/internal/manifest"
	"github.com/vk/chartbook/internal/paginate"
	"github.com/vk/chartbook/internal/tabs"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Options controls one compilation run.
type Options struct {
	// BaseName is the output unit base name. Defaults to "report".
	BaseName string
	// Prior is the manifest from the previous run; nil means a first
	// run, classifying every unit as new.
	Prior *manifest.Manifest
	// Force bypasses manifest comparison, classifying every unit as
	// changed.
	Force bool
}

// Item is one fully-compiled content item, ready for a renderer.
type Item struct {
	// Source is the resolved item, defaults applied.
	Source book.Item
	// Name is the chunk identifier, unique within the page.
	Name string
	// DataRef is the dataset view reference the item reads from: a
	// dedup-generated reference when filtered, the raw dataset name when
	// not, "" when the item is not data-bound.
	DataRef string
	// ConditionJSON is the serialized visibility condition for the
	// runtime evaluator, nil when the item is always visible.
	ConditionJSON []byte
}

// Page is one compiled output unit.
type Page struct {
	// UnitID is the unique unit identifier derived from the base name
	// and, beyond the first page, the page index.
	UnitID string
	// Index/Count are the 1-based page position and total page count.
	Index int
	Count int
	// Nav is nil for a single-page result.
	Nav *paginate.Nav
	// Items holds the page's compiled items in order.
	Items []Item
	// Tabs is the page's group hierarchy over the same items.
	Tabs []tabs.Entry
	// Hash is the content hash of everything that affects this page's
	// output bytes.
	Hash string
}

// Result is the output of one compilation run.
type Result struct {
	Pages []Page
	// Views lists the distinct filtered dataset views, each to be
	// computed exactly once before rendering.
	Views []dedup.View
	// Decisions classifies every current unit plus removed prior units.
	Decisions []incremental.Decision
	// Next is the manifest to persist once all generation succeeded.
	Next *manifest.Manifest
}

// Decision returns the classification for a unit ID.
func (r *Result) Decision(unitID string) (incremental.Decision, bool) {
	for _, d := range r.Decisions {
		if d.UnitID == unitID {
			return d, true
		}
	}
	return incremental.Decision{}, false
}

// Compile runs the pipeline. Errors name the offending item's insertion
// index; a validation error aborts the whole collection with no partial
// result.
func Compile(ctx context.Context, c book.Collection, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.BaseName == "" {
		opts.BaseName = "report"
	}
	if opts.Prior == nil {
		opts.Prior = manifest.New()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Per-item compilation: dataset views and visibility conditions.
	// Keyed by insertion index; pagination reshuffles nothing.
	cache := dedup.NewCache()
	refs := make(map[int]string, c.Len())
	conds := make(map[int][]byte)
	for _, it := range c.Items() {
		if name := it.DatasetRef(); name != "" {
			ds, ok := c.Dataset(name)
			if !ok {
				// Validate covers this; keep the invariant local anyway.
				return nil, &book.ValidationError{Index: it.Index, Field: book.FieldDataset, Msg: "references an unbound dataset"}
			}
			view, err := cache.Resolve(ds, it.Filter())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", it.Index, err)
			}
			refs[it.Index] = view.Ref
		}
		if expr := it.Visibility(); expr != "" {
			data, err := condition.CompileJSON(expr)
			if err != nil {
				return nil, fmt.Errorf("item %d, field %q: %w", it.Index, book.FieldVisibility, err)
			}
			conds[it.Index] = data
		}
	}
	logger.Debug("Per-item compilation complete.", "items", c.Len(), "views", len(cache.Views()))

	segments := paginate.Split(c.Items(), opts.BaseName)

	pages := make([]Page, 0, len(segments))
	units := make([]incremental.Unit, 0, len(segments))
	for _, seg := range segments {
		page := compilePage(c, seg, opts.BaseName, refs, conds)
		pages = append(pages, page)
		units = append(units, incremental.Unit{ID: page.UnitID, Hash: page.Hash})
	}

	decisions := incremental.Classify(ctx, units, opts.Prior, opts.Force)
	result := &Result{
		Pages:     pages,
		Views:     cache.Views(),
		Decisions: decisions,
		Next:      incremental.NextManifest(decisions, time.Now()),
	}
	logger.Debug("Compilation finished.", "pages", len(pages), "decisions", len(decisions))
	return result, nil
}

// compilePage names, groups and hashes one page segment.
func compilePage(c book.Collection, seg paginate.Segment, baseName string, refs map[int]string, conds map[int][]byte) Page {
	namer := tabs.NewNamer()
	items := make([]Item, 0, len(seg.Items))
	for _, src := range seg.Items {
		items = append(items, Item{
			Source:        src,
			Name:          namer.NameItem(src),
			DataRef:       refs[src.Index],
			ConditionJSON: conds[src.Index],
		})
	}

	page := Page{
		UnitID: UnitName(baseName, seg.PageIndex),
		Index:  seg.PageIndex,
		Count:  seg.PageCount,
		Nav:    seg.Nav,
		Items:  items,
		Tabs:   tabs.Assemble(seg.Items, c.GroupLabels()),
	}
	page.Hash = hashPage(c, page)
	return page
}

// UnitName derives a unit identifier: the base name alone for the first
// page, base-pN for the rest. Renderers use it to build navigation links
// between page artifacts.
func UnitName(baseName string, pageIndex int) string {
	if pageIndex == 1 {
		return baseName
	}
	return fmt.Sprintf("%s-p%d", baseName, pageIndex)
}

// hashPage hashes everything that affects the page's output bytes: the
// resolved item specs post dedup rewriting, the fingerprints of the
// datasets they read, the compiled conditions, and the page-level
// navigation configuration. Insertion indices are deliberately excluded
// so that edits to one page do not invalidate the others.
func hashPage(c book.Collection, page Page) string {
	parts := []string{
		page.UnitID,
		fmt.Sprintf("page %d of %d", page.Index, page.Count),
	}
	if page.Nav != nil {
		parts = append(parts, fmt.Sprintf("nav prev=%t next=%t base=%s", page.Nav.HasPrev, page.Nav.HasNext, page.Nav.BaseName))
	}
	for _, it := range page.Items {
		parts = append(parts,
			it.Source.Kind.String(),
			it.Name,
			joinPath(it.Source.GroupPath),
			it.DataRef,
			string(it.ConditionJSON),
			canonicalFields(it.Source.Fields),
		)
		if name := it.Source.DatasetRef(); name != "" {
			if ds, ok := c.Dataset(name); ok {
				parts = append(parts, ds.Fingerprint)
			}
		}
	}
	return incremental.HashContent(parts...)
}

func joinPath(path []string) string {
	out := ""
	for _, seg := range path {
		out += "/" + seg
	}
	return out
}

// canonicalFields serializes a field map deterministically: names sorted,
// values in their cty JSON encoding.
func canonicalFields(fields book.Fields) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for _, name := range names {
		v := fields[name]
		encoded := "null"
		if v != cty.NilVal && !v.IsNull() {
			if data, err := ctyjson.Marshal(v, v.Type()); err == nil {
				encoded = string(data)
			}
		}
		out += name + "=" + encoded + ";"
	}
	return out
}
