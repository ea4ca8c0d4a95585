package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chartbook/internal/book"
	"github.com/vk/chartbook/internal/condition"
	"github.com/vk/chartbook/internal/incremental"
	"github.com/zclconf/go-cty/cty"
)

func surveyCollection() book.Collection {
	return book.New(book.Fields{book.FieldDataset: cty.StringVal("survey")}).
		BindDataset(book.Dataset{Name: "survey", Fingerprint: "fp-1"})
}

func TestCompile_PaginationScenario(t *testing.T) {
	// 3 items separated by 2 breaks: 3 pages, index 1..3, count 3.
	c := surveyCollection().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("one")}).
		AddPageBreak().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("two")}).
		AddPageBreak().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("three")})

	res, err := Compile(context.Background(), c, Options{BaseName: "report"})
	require.NoError(t, err)
	require.Len(t, res.Pages, 3)

	assert.Equal(t, "report", res.Pages[0].UnitID)
	assert.Equal(t, "report-p2", res.Pages[1].UnitID)
	assert.Equal(t, "report-p3", res.Pages[2].UnitID)

	for i, page := range res.Pages {
		assert.Equal(t, i+1, page.Index)
		assert.Equal(t, 3, page.Count)
		require.NotNil(t, page.Nav)
	}
	assert.False(t, res.Pages[0].Nav.HasPrev)
	assert.True(t, res.Pages[0].Nav.HasNext)
	assert.True(t, res.Pages[2].Nav.HasPrev)
	assert.False(t, res.Pages[2].Nav.HasNext)
}

func TestCompile_ChunkNames(t *testing.T) {
	c := surveyCollection().
		Add(book.KindChart, []string{"demographics", "age", "trend"}, book.Fields{"x": cty.StringVal("age")}).
		Add(book.KindChart, []string{"analysis", "main"}, nil).
		Add(book.KindChart, []string{"analysis", "main"}, nil)

	res, err := Compile(context.Background(), c, Options{})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)

	items := res.Pages[0].Items
	require.Len(t, items, 3)
	assert.Equal(t, "demographics-age-trend", items[0].Name)
	assert.Equal(t, "analysis-main", items[1].Name)
	assert.Equal(t, "analysis-main-2", items[2].Name)
}

func TestCompile_SharedFiltersResolveOnce(t *testing.T) {
	filter := `status == "active"`
	c := surveyCollection().
		Add(book.KindChart, nil, book.Fields{book.FieldFilter: cty.StringVal(filter), "x": cty.StringVal("age")}).
		Add(book.KindChart, nil, book.Fields{book.FieldFilter: cty.StringVal(" status ==  \"active\""), "x": cty.StringVal("gender")}).
		Add(book.KindChart, nil, book.Fields{"x": cty.StringVal("region")})

	res, err := Compile(context.Background(), c, Options{})
	require.NoError(t, err)
	require.Len(t, res.Views, 1, "textually-identical filters collapse to one computed view")

	items := res.Pages[0].Items
	assert.Equal(t, items[0].DataRef, items[1].DataRef)
	assert.Equal(t, res.Views[0].Ref, items[0].DataRef)
	assert.Equal(t, "survey", items[2].DataRef, "unfiltered item references the raw dataset")
}

func TestCompile_VisibilityConditions(t *testing.T) {
	c := surveyCollection().
		Add(book.KindChart, nil, book.Fields{
			book.FieldVisibility: cty.StringVal(`status == "active" & wave == "1"`),
			"x":                  cty.StringVal("age"),
		})

	res, err := Compile(context.Background(), c, Options{})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"op": "and",
		"conditions": [
			{"var": "status", "op": "eq", "val": "active"},
			{"var": "wave", "op": "eq", "val": "1"}
		]
	}`, string(res.Pages[0].Items[0].ConditionJSON))
}

func TestCompile_UnsupportedVisibilityOperatorNamesItem(t *testing.T) {
	c := surveyCollection().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("fine")}).
		Add(book.KindChart, nil, book.Fields{
			book.FieldVisibility: cty.StringVal(`status ~= "active"`),
			"x":                  cty.StringVal("age"),
		})

	_, err := Compile(context.Background(), c, Options{})
	var opErr *condition.UnsupportedOperatorError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "~=", opErr.Operator)
	assert.Contains(t, err.Error(), "item 2")
}

func TestCompile_ValidationErrorAbortsWholeCollection(t *testing.T) {
	c := surveyCollection().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("ok")}).
		Add(book.Kind(42), nil, nil)

	res, err := Compile(context.Background(), c, Options{})
	var verr *book.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, res, "no partial output on validation failure")
}

func TestCompile_SecondRunIsUnchanged(t *testing.T) {
	ctx := context.Background()
	c := surveyCollection().
		Add(book.KindChart, []string{"kpi"}, book.Fields{"x": cty.StringVal("age")}).
		AddPageBreak().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("notes")})

	first, err := Compile(ctx, c, Options{})
	require.NoError(t, err)
	for _, d := range first.Decisions {
		assert.Equal(t, incremental.StatusNew, d.Status, "first run with no manifest is all new")
	}

	second, err := Compile(ctx, c, Options{Prior: first.Next})
	require.NoError(t, err)
	require.Len(t, second.Decisions, 2)
	for _, d := range second.Decisions {
		assert.Equal(t, incremental.StatusUnchanged, d.Status, "unchanged input compiles to unchanged units")
	}
}

func TestCompile_EditOnOnePageInvalidatesOnlyThatPage(t *testing.T) {
	ctx := context.Background()
	base := func(note string) book.Collection {
		return surveyCollection().
			Add(book.KindChart, []string{"kpi"}, book.Fields{"x": cty.StringVal("age")}).
			AddPageBreak().
			Add(book.KindText, nil, book.Fields{"content": cty.StringVal(note)})
	}

	first, err := Compile(ctx, base("v1"), Options{})
	require.NoError(t, err)

	second, err := Compile(ctx, base("v2"), Options{Prior: first.Next})
	require.NoError(t, err)

	d1, ok := second.Decision("report")
	require.True(t, ok)
	assert.Equal(t, incremental.StatusUnchanged, d1.Status)
	d2, ok := second.Decision("report-p2")
	require.True(t, ok)
	assert.Equal(t, incremental.StatusChanged, d2.Status)
}

func TestCompile_RemovedPageIsReported(t *testing.T) {
	ctx := context.Background()
	two := surveyCollection().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("a")}).
		AddPageBreak().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("b")})
	one := surveyCollection().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("a")})

	first, err := Compile(ctx, two, Options{})
	require.NoError(t, err)

	second, err := Compile(ctx, one, Options{Prior: first.Next})
	require.NoError(t, err)

	d, ok := second.Decision("report-p2")
	require.True(t, ok)
	assert.Equal(t, incremental.StatusRemoved, d.Status)
	_, inNext := second.Next.Records["report-p2"]
	assert.False(t, inNext, "removed units are dropped from the next manifest")
}

func TestCompile_ForceRebuild(t *testing.T) {
	ctx := context.Background()
	c := surveyCollection().Add(book.KindText, nil, book.Fields{"content": cty.StringVal("a")})

	first, err := Compile(ctx, c, Options{})
	require.NoError(t, err)

	forced, err := Compile(ctx, c, Options{Prior: first.Next, Force: true})
	require.NoError(t, err)
	d, ok := forced.Decision("report")
	require.True(t, ok)
	assert.Equal(t, incremental.StatusChanged, d.Status)
}

func TestCompile_TabsPerPage(t *testing.T) {
	c := surveyCollection().
		SetGroupLabels(map[string]string{"demo": "Demographics"}).
		Add(book.KindChart, []string{"demo"}, book.Fields{"x": cty.StringVal("age")}).
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("loose")})

	res, err := Compile(context.Background(), c, Options{})
	require.NoError(t, err)
	entries := res.Pages[0].Tabs
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Group)
	assert.Equal(t, "Demographics", entries[0].Group.Label)
	require.NotNil(t, entries[1].Item)
}
