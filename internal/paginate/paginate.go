// Package paginate cuts an assembled item sequence into page segments at
// explicit pagination break markers and attaches the navigation metadata
// the document renderer needs to link the pages together.
package paginate

import (
	"github.com/vk/chartbook/internal/book"
)

// Nav is the navigation contract for one segment. The renderer constructs
// links from it; this package never renders anything.
type Nav struct {
	// BaseName is the output unit base name pages derive their file
	// names from.
	BaseName string
	// PageIndex is 1-based.
	PageIndex int
	PageCount int
	// HasPrev/HasNext follow the first/interior/last contract.
	HasPrev bool
	HasNext bool
}

// Segment is a contiguous run of items bounded by break markers.
type Segment struct {
	// PageIndex is the 1-based position of the segment.
	PageIndex int
	// PageCount is the total number of segments in the split.
	PageCount int
	// Items holds the segment's items in order. Break markers are
	// consumed by the split and never appear here.
	Items []book.Item
	// PaginationAfter is true when the segment was closed by an explicit
	// break marker rather than the end of the sequence.
	PaginationAfter bool
	// Nav is nil when the whole sequence fits on a single page.
	Nav *Nav
}

// Split scans the sequence once, accumulating items into the current
// segment and closing it at every break marker. k markers yield exactly
// k+1 segments; consecutive markers yield empty-but-valid segments.
// Concatenating the segments' items reproduces the input minus the
// markers.
func Split(items []book.Item, baseName string) []Segment {
	segments := []Segment{{}}
	for _, it := range items {
		if it.Kind == book.KindPageBreak {
			segments[len(segments)-1].PaginationAfter = true
			segments = append(segments, Segment{})
			continue
		}
		last := &segments[len(segments)-1]
		last.Items = append(last.Items, it)
	}

	count := len(segments)
	for i := range segments {
		segments[i].PageIndex = i + 1
		segments[i].PageCount = count
		if count == 1 {
			// A single page gets no navigation metadata at all.
			continue
		}
		segments[i].Nav = &Nav{
			BaseName:  baseName,
			PageIndex: i + 1,
			PageCount: count,
			HasPrev:   i > 0,
			HasNext:   i < count-1,
		}
	}
	return segments
}
