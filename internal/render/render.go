// Package render is the built-in document renderer: it turns compiled
// pages into standalone HTML artifacts. Markdown text items go through
// goldmark; chart, control and sidebar items render as placeholder
// elements carrying their resolved spec for the charting frontend.
//
// The compiler core never imports this package. It is one consumer of
// the per-page interface (named items plus navigation metadata) and is
// invoked only for units classified changed or new.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/chartbook/internal/book"
	"github.com/vk/chartbook/internal/compile"
	"github.com/vk/chartbook/internal/ctxlog"
	"github.com/vk/chartbook/internal/tabs"
)

// HTML renders pages to self-contained HTML files.
type HTML struct {
	md goldmark.Markdown
}

// NewHTML returns a renderer with a default goldmark pipeline.
func NewHTML() *HTML {
	return &HTML{md: goldmark.New()}
}

// ArtifactPath returns the output file for a unit.
func ArtifactPath(outDir, unitID string) string {
	return filepath.Join(outDir, unitID+".html")
}

// WritePage renders a page and writes its artifact, returning the path.
func (r *HTML) WritePage(ctx context.Context, outDir string, page compile.Page) (string, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := r.RenderPage(page)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}
	path := ArtifactPath(outDir, page.UnitID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write page %s: %w", page.UnitID, err)
	}
	logger.Debug("Page rendered.", "unit", page.UnitID, "path", path, "bytes", len(data))
	return path, nil
}

// RenderPage produces the HTML document for one page.
func (r *HTML) RenderPage(page compile.Page) ([]byte, error) {
	// Compiled items by insertion index, to pair names and data refs
	// with the items inside the tab hierarchy.
	compiled := make(map[int]compile.Item, len(page.Items))
	for _, it := range page.Items {
		compiled[it.Source.Index] = it
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&b, "<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(page.UnitID))
	b.WriteString("</head>\n<body>\n")

	if err := r.writeEntries(&b, page.Tabs, compiled, 2); err != nil {
		return nil, err
	}

	if page.Nav != nil {
		b.WriteString("<nav class=\"pagination\">\n")
		if page.Nav.HasPrev {
			prev := compile.UnitName(page.Nav.BaseName, page.Nav.PageIndex-1)
			fmt.Fprintf(&b, "<a rel=\"prev\" href=\"%s.html\">Previous</a>\n", html.EscapeString(prev))
		}
		fmt.Fprintf(&b, "<span>Page %d of %d</span>\n", page.Nav.PageIndex, page.Nav.PageCount)
		if page.Nav.HasNext {
			next := compile.UnitName(page.Nav.BaseName, page.Nav.PageIndex+1)
			fmt.Fprintf(&b, "<a rel=\"next\" href=\"%s.html\">Next</a>\n", html.EscapeString(next))
		}
		b.WriteString("</nav>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return []byte(b.String()), nil
}

// writeEntries walks the tab hierarchy, emitting group sections and
// items in their assembled order.
func (r *HTML) writeEntries(b *strings.Builder, entries []tabs.Entry, compiled map[int]compile.Item, level int) error {
	for _, entry := range entries {
		if entry.Item != nil {
			if err := r.writeItem(b, compiled[entry.Item.Index]); err != nil {
				return err
			}
			continue
		}
		if err := r.writeGroup(b, entry.Group, compiled, level); err != nil {
			return err
		}
	}
	return nil
}

func (r *HTML) writeGroup(b *strings.Builder, group *tabs.GroupNode, compiled map[int]compile.Item, level int) error {
	fmt.Fprintf(b, "<section class=\"tab-group\" data-segment=\"%s\">\n", html.EscapeString(group.Segment))
	fmt.Fprintf(b, "<h%d>%s</h%d>\n", level, html.EscapeString(group.Label), level)
	for _, it := range group.Items {
		if err := r.writeItem(b, compiled[it.Index]); err != nil {
			return err
		}
	}
	for _, child := range group.Children {
		if err := r.writeGroup(b, child, compiled, level+1); err != nil {
			return err
		}
	}
	b.WriteString("</section>\n")
	return nil
}

func (r *HTML) writeItem(b *strings.Builder, it compile.Item) error {
	attrs := " id=" + attrQuote(it.Name)
	if it.DataRef != "" {
		attrs += " data-view=" + attrQuote(it.DataRef)
	}
	if len(it.ConditionJSON) > 0 {
		attrs += " data-visibility=" + attrQuote(string(it.ConditionJSON))
	}

	switch it.Source.Kind {
	case book.KindText:
		fmt.Fprintf(b, "<div class=\"text\"%s>\n", attrs)
		if err := r.writeMarkdown(b, it.Source); err != nil {
			return err
		}
		b.WriteString("</div>\n")
	case book.KindImage:
		fmt.Fprintf(b, "<img%s src=%s alt=%s>\n", attrs, attrQuote(it.Source.Str("src")), attrQuote(it.Source.Title()))
	case book.KindRow, book.KindColumn:
		fmt.Fprintf(b, "<div class=%s%s></div>\n", attrQuote(it.Source.Kind.String()), attrs)
	default:
		// Charts, controls and sidebars are placeholders resolved by the
		// charting frontend; the full resolved spec rides along.
		spec, err := specJSON(it.Source.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode spec for %s: %w", it.Name, err)
		}
		fmt.Fprintf(b, "<figure class=%s%s data-spec=%s>", attrQuote(it.Source.Kind.String()), attrs, attrQuote(spec))
		if title := it.Source.Title(); title != "" {
			fmt.Fprintf(b, "<figcaption>%s</figcaption>", html.EscapeString(title))
		}
		b.WriteString("</figure>\n")
	}
	return nil
}

// attrQuote escapes a value for use inside a double-quoted HTML
// attribute.
func attrQuote(s string) string {
	return `"` + html.EscapeString(s) + `"`
}

func (r *HTML) writeMarkdown(b *strings.Builder, it book.Item) error {
	content := it.Str("content")
	var buf bytes.Buffer
	if it.Str("format") == "markdown" {
		if err := r.md.Convert([]byte(content), &buf); err != nil {
			return fmt.Errorf("markdown conversion failed: %w", err)
		}
	} else {
		buf.WriteString("<p>" + html.EscapeString(content) + "</p>")
	}
	b.Write(buf.Bytes())
	return nil
}

// specJSON serializes an item's resolved fields for the frontend, keys
// sorted by the JSON encoder.
func specJSON(fields book.Fields) (string, error) {
	out := make(map[string]json.RawMessage, len(fields))
	for name, v := range fields {
		if v.IsNull() {
			out[name] = json.RawMessage("null")
			continue
		}
		data, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return "", err
		}
		out[name] = data
	}
	data, err := json.Marshal(out)
	return string(data), err
}
