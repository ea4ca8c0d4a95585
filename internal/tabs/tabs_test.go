package tabs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chartbook/internal/book"
	"github.com/zclconf/go-cty/cty"
)

func chart(index int, group []string, fields book.Fields) book.Item {
	if fields == nil {
		fields = book.Fields{}
	}
	return book.Item{Kind: book.KindChart, Index: index, GroupPath: group, Fields: fields}
}

func TestAssemble_FirstSeenOrder(t *testing.T) {
	items := []book.Item{
		chart(1, []string{"demo", "age"}, nil),
		chart(2, nil, nil), // ungrouped, interleaved
		chart(3, []string{"kpi"}, nil),
		chart(4, []string{"demo", "gender"}, nil),
		chart(5, []string{"demo"}, nil),
	}

	entries := Assemble(items, map[string]string{"demo": "Demographics"})
	require.Len(t, entries, 3)

	demo := entries[0].Group
	require.NotNil(t, demo)
	assert.Equal(t, "demo", demo.Segment)
	assert.Equal(t, "Demographics", demo.Label)
	require.Len(t, demo.Children, 2, "age before gender, first-seen order")
	assert.Equal(t, "age", demo.Children[0].Segment)
	assert.Equal(t, "age", demo.Children[0].Label, "raw segment when no label is mapped")
	assert.Equal(t, "gender", demo.Children[1].Segment)
	require.Len(t, demo.Items, 1, "item 5 lands directly on the demo node")
	assert.Equal(t, 5, demo.Items[0].Index)

	require.NotNil(t, entries[1].Item)
	assert.Equal(t, 2, entries[1].Item.Index)

	require.NotNil(t, entries[2].Group)
	assert.Equal(t, "kpi", entries[2].Group.Segment)
}

func TestAssemble_GroupedItemsKeepInsertionOrder(t *testing.T) {
	items := []book.Item{
		chart(1, []string{"analysis"}, nil),
		chart(2, []string{"analysis"}, nil),
		chart(3, []string{"analysis"}, nil),
	}
	entries := Assemble(items, nil)
	require.Len(t, entries, 1)
	g := entries[0].Group
	require.Len(t, g.Items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{g.Items[0].Index, g.Items[1].Index, g.Items[2].Index})
}

func TestSanitize(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		expected string
	}{
		{"lowercases", "Age Trend", "age-trend"},
		{"collapses symbol runs", "Q1 -- What's your *age*?", "q1-what-s-your-age"},
		{"trims edge dashes", "--core--", "core"},
		{"empty input", "   ", ""},
		{"truncates to 50", "a123456789b123456789c123456789d123456789e123456789xyz", "a123456789b123456789c123456789d123456789e123456789"[:50]},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Sanitize(tc.in))
			assert.LessOrEqual(t, len(Sanitize(tc.in)), 50)
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, in := range []string{"Age Trend", "q1-what-s-your-age", "--core--", "UPPER case HERE"} {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "sanitizing %q twice must be a no-op", in)
	}
}

func TestNamer_GroupPathName(t *testing.T) {
	n := NewNamer()
	it := chart(1, []string{"demographics", "age", "trend"}, nil)
	assert.Equal(t, "demographics-age-trend", n.NameItem(it))
}

func TestNamer_DuplicateGroupPathsDisambiguate(t *testing.T) {
	n := NewNamer()
	a := n.NameItem(chart(1, []string{"analysis", "main"}, nil))
	b := n.NameItem(chart(2, []string{"analysis", "main"}, nil))
	c := n.NameItem(chart(3, []string{"analysis", "main"}, nil))
	assert.Equal(t, "analysis-main", a)
	assert.Equal(t, "analysis-main-2", b)
	assert.Equal(t, "analysis-main-3", c)
}

func TestNamer_CaseInsensitiveCollisions(t *testing.T) {
	n := NewNamer()
	a := n.Issue("Results")
	b := n.Issue("RESULTS")
	assert.Equal(t, "results", a)
	assert.Equal(t, "results-2", b)
}

func TestNamer_NeverReusesAnIssuedName(t *testing.T) {
	n := NewNamer()
	assert.Equal(t, "main-2", n.Issue("main-2"), "explicit main-2 claims the suffix slot")
	assert.Equal(t, "main", n.Issue("main"))
	assert.Equal(t, "main-3", n.Issue("main"), "collision skips past the already-issued main-2")
}

func TestNamer_FieldExtraction(t *testing.T) {
	n := NewNamer()

	t.Run("chart joins x and y", func(t *testing.T) {
		it := chart(1, nil, book.Fields{"x": cty.StringVal("age"), "y": cty.StringVal("income")})
		assert.Equal(t, "age-income", n.NameItem(it))
	})

	t.Run("chart falls back to x alone", func(t *testing.T) {
		it := chart(2, nil, book.Fields{"x": cty.StringVal("region")})
		assert.Equal(t, "region", n.NameItem(it))
	})

	t.Run("control uses its bound field", func(t *testing.T) {
		it := book.Item{Kind: book.KindControl, Index: 3, Fields: book.Fields{"field": cty.StringVal("Wave")}}
		assert.Equal(t, "wave", n.NameItem(it))
	})

	t.Run("text uses its title", func(t *testing.T) {
		it := book.Item{Kind: book.KindText, Index: 4, Fields: book.Fields{book.FieldTitle: cty.StringVal("Intro Section")}}
		assert.Equal(t, "intro-section", n.NameItem(it))
	})

	t.Run("generic fallback is kind and position", func(t *testing.T) {
		it := book.Item{Kind: book.KindChart, Index: 7, Fields: book.Fields{}}
		assert.Equal(t, "chart-7", n.NameItem(it))
	})
}

func TestNamer_DeterministicGivenSameOrder(t *testing.T) {
	run := func() []string {
		n := NewNamer()
		var names []string
		for _, it := range []book.Item{
			chart(1, []string{"analysis", "main"}, nil),
			chart(2, []string{"analysis", "main"}, nil),
			chart(3, nil, book.Fields{"x": cty.StringVal("age")}),
			chart(4, nil, book.Fields{"x": cty.StringVal("age")}),
		} {
			names = append(names, n.NameItem(it))
		}
		return names
	}
	assert.Equal(t, run(), run())
}
