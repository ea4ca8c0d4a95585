package render

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chartbook/internal/book"
	"github.com/vk/chartbook/internal/compile"
	"github.com/zclconf/go-cty/cty"
)

func compiledPages(t *testing.T) []compile.Page {
	t.Helper()
	c := book.New(nil).
		BindDataset(book.Dataset{Name: "survey", Fingerprint: "fp-1"}).
		SetGroupLabels(map[string]string{"demo": "Demographics"}).
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("# Hello\n\nSome *markdown*.")}).
		Add(book.KindChart, []string{"demo"}, book.Fields{
			book.FieldDataset:    cty.StringVal("survey"),
			book.FieldFilter:     cty.StringVal(`status == "active"`),
			book.FieldVisibility: cty.StringVal(`wave == "1"`),
			"x":                  cty.StringVal("age"),
		}).
		AddPageBreak().
		Add(book.KindText, nil, book.Fields{"content": cty.StringVal("second page")})

	res, err := compile.Compile(context.Background(), c, compile.Options{BaseName: "report"})
	require.NoError(t, err)
	return res.Pages
}

func TestRenderPage(t *testing.T) {
	pages := compiledPages(t)
	require.Len(t, pages, 2)

	out, err := NewHTML().RenderPage(pages[0])
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, "<h1>Hello</h1>", "markdown text renders through goldmark")
	assert.Contains(t, doc, "<em>markdown</em>")
	assert.Contains(t, doc, `data-segment="demo"`)
	assert.Contains(t, doc, "<h2>Demographics</h2>", "group label renders, not the raw segment")
	assert.Contains(t, doc, `data-view="survey-v-`, "chart carries its deduplicated view reference")
	assert.Contains(t, doc, "data-visibility=", "compiled condition rides along for the evaluator")
	assert.Contains(t, doc, `rel="next" href="report-p2.html"`, "first page links forward only")
	assert.NotContains(t, doc, `rel="prev"`)
}

func TestRenderPage_LastPageLinksBackOnly(t *testing.T) {
	pages := compiledPages(t)

	out, err := NewHTML().RenderPage(pages[1])
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, `rel="prev" href="report.html"`)
	assert.NotContains(t, doc, `rel="next"`)
}

func TestWritePage(t *testing.T) {
	pages := compiledPages(t)
	dir := t.TempDir()

	path, err := NewHTML().WritePage(context.Background(), dir, pages[0])
	require.NoError(t, err)
	assert.Equal(t, ArtifactPath(dir, "report"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}
