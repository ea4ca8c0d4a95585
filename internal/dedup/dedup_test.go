package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chartbook/internal/book"
)

var survey = book.Dataset{Name: "survey", Fingerprint: "fp-1"}

func TestResolve_SharedFiltersCollapse(t *testing.T) {
	c := NewCache()

	a, err := c.Resolve(survey, `status == "active"`)
	require.NoError(t, err)
	b, err := c.Resolve(survey, `status   ==   "active"`)
	require.NoError(t, err)

	assert.Equal(t, a, b, "whitespace-divergent but identical filters share one view")
	assert.Len(t, c.Views(), 1, "the shared view is computed once")
	assert.Equal(t, `status == "active"`, a.Filter)
	assert.True(t, strings.HasPrefix(a.Ref, "survey-v-"), "reference embeds the dataset name")
}

func TestResolve_DistinctInputsDiverge(t *testing.T) {
	c := NewCache()

	base, err := c.Resolve(survey, `wave == "1"`)
	require.NoError(t, err)

	otherFilter, err := c.Resolve(survey, `wave == "2"`)
	require.NoError(t, err)
	assert.NotEqual(t, base.Ref, otherFilter.Ref)

	otherData, err := c.Resolve(book.Dataset{Name: "survey", Fingerprint: "fp-2"}, `wave == "1"`)
	require.NoError(t, err)
	assert.NotEqual(t, base.Ref, otherData.Ref, "same filter over different data is a different view")

	assert.Len(t, c.Views(), 3)
}

func TestResolve_UnfilteredBypassesCache(t *testing.T) {
	c := NewCache()

	v, err := c.Resolve(survey, "")
	require.NoError(t, err)
	assert.Equal(t, "survey", v.Ref, "unfiltered items reference the raw dataset")
	assert.Empty(t, c.Views())

	v, err = c.Resolve(survey, "   \t ")
	require.NoError(t, err)
	assert.Equal(t, "survey", v.Ref)
	assert.Empty(t, c.Views())
}

func TestResolve_StableAcrossCaches(t *testing.T) {
	a, err := NewCache().Resolve(survey, `region in ["north", "south"]`)
	require.NoError(t, err)
	b, err := NewCache().Resolve(survey, `region in ["north", "south"]`)
	require.NoError(t, err)
	assert.Equal(t, a, b, "keys are content-addressed, not run-dependent")
}

func TestNormalizeFilter_Idempotent(t *testing.T) {
	once := NormalizeFilter("  status ==\t\"active\"   &  wave == \"1\" ")
	twice := NormalizeFilter(once)
	assert.Equal(t, once, twice)
}

func TestNewRef_ExtendsPrefixOnCollision(t *testing.T) {
	c := NewCache()

	// Force a prefix collision by pre-seeding a reference whose truncated
	// prefix matches a different key.
	keyA := "aaaaaaaacccccccc"
	keyB := "aaaaaaaadddddddd"
	c.byRef["survey-v-aaaaaaaa"] = &View{Ref: "survey-v-aaaaaaaa", Key: keyA}

	ref, err := c.newRef("survey", keyB)
	require.NoError(t, err)
	assert.Equal(t, "survey-v-aaaaaaaad", ref, "prefix lengthened past the collision")
}
