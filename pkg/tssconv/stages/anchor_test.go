package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
)

func headerSpec() config.AnchorSpec {
	return testConfig().Anchors.Header
}

func TestFindAnchorEarliestWins(t *testing.T) {
	g := blankGrid(10, 5)
	g.Set(5, 1, headerLabel)
	g.Set(3, 4, headerLabel)
	g.Set(3, 2, headerLabel)

	a, err := FindAnchor(g, headerSpec(), Rows(1, 50))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Row)
	assert.Equal(t, 2, a.Col)
	assert.Equal(t, "exact", a.Tier)

	require.Len(t, a.Others, 2)
	diags := a.Diagnostics(StageAnchor)
	require.Len(t, diags, 2)
	assert.True(t, errors.Is(diags[0], ErrAmbiguousMatch))
	assert.Equal(t, 3, diags[0].Row)
	assert.Equal(t, 4, diags[0].Col)
}

func TestFindAnchorNormalizedVariant(t *testing.T) {
	g := blankGrid(4, 3)
	g.Set(2, 3, "  general   TYPE of material in connect ")

	a, err := FindAnchor(g, headerSpec(), Rows(1, 50))
	require.NoError(t, err)
	assert.Equal(t, "normalized", a.Tier)
	assert.Equal(t, "General Type of Material in Connect", a.Label)
	assert.Equal(t, "C2", a.Cell())
}

func TestFindAnchorEarlierNormalizedBeatsLaterExact(t *testing.T) {
	g := blankGrid(6, 2)
	g.Set(1, 1, "general type/sub-type in connect")
	g.Set(4, 1, headerLabel)

	a, err := FindAnchor(g, headerSpec(), Rows(1, 50))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Row)
	assert.Equal(t, "normalized", a.Tier)

	require.Len(t, a.Others, 1)
	assert.Equal(t, 4, a.Others[0].Row)
	assert.Equal(t, "exact", a.Others[0].Tier)
	diags := a.Diagnostics(StageAnchor)
	require.Len(t, diags, 1)
	assert.True(t, errors.Is(diags[0], ErrAmbiguousMatch))
	assert.Equal(t, 4, diags[0].Row)
}

func TestFindAnchorNotFoundOutsideWindow(t *testing.T) {
	g := blankGrid(60, 2)
	g.Set(55, 1, headerLabel)

	_, err := FindAnchor(g, headerSpec(), Rows(1, 50))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, headerSpec().Labels, se.Labels)
	require.NotNil(t, se.Window)
	assert.Equal(t, 50, se.Window.LastRow)
	assert.Contains(t, se.Error(), "rows 1-50")

	a, err := FindAnchor(g, headerSpec(), Rows(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 55, a.Row)
}

func TestFindAnchorRespectsMinTier(t *testing.T) {
	g := blankGrid(3, 1)
	g.Set(2, 1, "Oldest TR date (dd/mm/yyyy)")

	spec := config.AnchorSpec{Name: "boundary", Labels: []string{"Oldest TR date"}, MinTier: match.TierNormalized}
	_, err := FindAnchor(g, spec, Window{})
	assert.True(t, errors.Is(err, ErrNotFound))

	spec.MinTier = match.TierTokenSubset
	a, err := FindAnchor(g, spec, Window{})
	require.NoError(t, err)
	assert.Equal(t, "token-subset", a.Tier)
	assert.Less(t, a.Confidence, 0.95)
}

func TestFindAnchorIgnoresFlattenedMergeCopies(t *testing.T) {
	g := blankGrid(6, 3)
	for r := 2; r <= 4; r++ {
		g.Set(r, 1, headerLabel)
	}

	a, err := FindAnchor(g, headerSpec(), Window{})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Row)
	assert.Empty(t, a.Others)
}

func TestFindAnchorsDocumentOrder(t *testing.T) {
	g := gridOf(t,
		[]string{"", "Article No.", "Article Name"},
		[]string{"Article Name", "", ""},
	)
	spec := testConfig().Anchors.ArticleName
	found := FindAnchors(g, spec, Window{})
	require.Len(t, found, 2)
	assert.Equal(t, [2]int{1, 3}, [2]int{found[0].Row, found[0].Col})
	assert.Equal(t, [2]int{2, 1}, [2]int{found[1].Row, found[1].Col})
}
