// Package tabs builds the tab/group hierarchy from item group paths and
// derives the unique, human-readable chunk name for every compiled item.
package tabs

import (
	"github.com/vk/chartbook/internal/book"
)

// GroupNode is one tab group, keyed by a single path segment. Children
// appear in the order their segment was first encountered, so the
// hierarchy is stable across rebuilds of the same collection.
type GroupNode struct {
	// Segment is the raw group path segment.
	Segment string
	// Label is the display label: the collection's group_labels entry
	// for the segment, else the raw segment.
	Label string
	// Items holds the items grouped directly at this node, in insertion
	// order.
	Items []book.Item
	// Children holds nested groups in first-seen order.
	Children []*GroupNode
}

// Entry is one element of the assembled top-level sequence. Ungrouped
// items interleave with tab groups in insertion order, so exactly one of
// Item and Group is set.
type Entry struct {
	Item  *book.Item
	Group *GroupNode
}

// Assemble builds the group forest for an item sequence. Pagination
// breaks never appear in the input; the paginate package strips them
// before grouping.
func Assemble(items []book.Item, labels map[string]string) []Entry {
	var entries []Entry
	// roots tracks top-level groups already started, by first segment.
	roots := make(map[string]*GroupNode)

	for _, it := range items {
		if len(it.GroupPath) == 0 {
			item := it
			entries = append(entries, Entry{Item: &item})
			continue
		}

		root, ok := roots[it.GroupPath[0]]
		if !ok {
			root = &GroupNode{Segment: it.GroupPath[0], Label: lookupLabel(labels, it.GroupPath[0])}
			roots[it.GroupPath[0]] = root
			entries = append(entries, Entry{Group: root})
		}

		node := root
		for _, seg := range it.GroupPath[1:] {
			node = node.child(seg, labels)
		}
		node.Items = append(node.Items, it)
	}
	return entries
}

// child finds or creates the named child group, preserving first-seen
// order.
func (n *GroupNode) child(segment string, labels map[string]string) *GroupNode {
	for _, c := range n.Children {
		if c.Segment == segment {
			return c
		}
	}
	c := &GroupNode{Segment: segment, Label: lookupLabel(labels, segment)}
	n.Children = append(n.Children, c)
	return c
}

func lookupLabel(labels map[string]string, segment string) string {
	if label, ok := labels[segment]; ok {
		return label
	}
	return segment
}
