package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chartbook/internal/book"
)

func text(index int) book.Item {
	return book.Item{Kind: book.KindText, Index: index, Fields: book.Fields{}}
}

func pageBreak(index int) book.Item {
	return book.Item{Kind: book.KindPageBreak, Index: index, Fields: book.Fields{}}
}

func TestSplit_ThreeItemsTwoBreaks(t *testing.T) {
	items := []book.Item{text(1), pageBreak(2), text(3), pageBreak(4), text(5)}

	segments := Split(items, "report")
	require.Len(t, segments, 3)

	for i, seg := range segments {
		assert.Equal(t, i+1, seg.PageIndex)
		assert.Equal(t, 3, seg.PageCount)
		require.NotNil(t, seg.Nav)
		assert.Equal(t, "report", seg.Nav.BaseName)
	}

	assert.False(t, segments[0].Nav.HasPrev, "first segment exposes only next")
	assert.True(t, segments[0].Nav.HasNext)
	assert.True(t, segments[1].Nav.HasPrev, "interior segment exposes both")
	assert.True(t, segments[1].Nav.HasNext)
	assert.True(t, segments[2].Nav.HasPrev, "last segment exposes only previous")
	assert.False(t, segments[2].Nav.HasNext)

	assert.True(t, segments[0].PaginationAfter)
	assert.True(t, segments[1].PaginationAfter)
	assert.False(t, segments[2].PaginationAfter)
}

func TestSplit_RoundTrip(t *testing.T) {
	// k breaks yield k+1 segments and concatenation reproduces the input
	// minus the markers.
	items := []book.Item{
		text(1), text(2), pageBreak(3), text(4), pageBreak(5), pageBreak(6), text(7),
	}
	segments := Split(items, "report")
	require.Len(t, segments, 4)

	var rejoined []int
	for _, seg := range segments {
		for _, it := range seg.Items {
			rejoined = append(rejoined, it.Index)
		}
	}
	assert.Equal(t, []int{1, 2, 4, 7}, rejoined)
}

func TestSplit_ConsecutiveBreaksYieldEmptySegment(t *testing.T) {
	items := []book.Item{text(1), pageBreak(2), pageBreak(3), text(4)}
	segments := Split(items, "report")
	require.Len(t, segments, 3)
	assert.Empty(t, segments[1].Items)
	assert.Equal(t, 2, segments[1].PageIndex)
	require.NotNil(t, segments[1].Nav, "empty segments are still valid pages")
}

func TestSplit_NoBreaks(t *testing.T) {
	segments := Split([]book.Item{text(1), text(2)}, "report")
	require.Len(t, segments, 1)
	assert.Equal(t, 1, segments[0].PageIndex)
	assert.Equal(t, 1, segments[0].PageCount)
	assert.Nil(t, segments[0].Nav, "single page carries no navigation metadata")
	assert.False(t, segments[0].PaginationAfter)
}

func TestSplit_EmptyInput(t *testing.T) {
	segments := Split(nil, "report")
	require.Len(t, segments, 1)
	assert.Empty(t, segments[0].Items)
}
