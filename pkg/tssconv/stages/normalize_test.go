package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

func mergedGrid(t *testing.T) *models.Grid {
	t.Helper()
	g := gridOf(t,
		[]string{"Header", "", "Solo"},
		[]string{"", "", "x"},
		[]string{"Tall", "y", ""},
		[]string{"", "z", ""},
	)
	bold := &models.Style{Bold: true, FillColor: "FF0000"}
	g.SetStyle(1, 1, bold)
	require.NoError(t, g.AddMerge(models.MergedRange{Row: 1, Col: 1, RowSpan: 2, ColSpan: 2}))
	require.NoError(t, g.AddMerge(models.MergedRange{Row: 3, Col: 1, RowSpan: 2, ColSpan: 1}))
	return g
}

func TestNormalizeCellsExpandsMerges(t *testing.T) {
	g := mergedGrid(t)
	out, err := NormalizeCells(g)
	require.NoError(t, err)

	assert.Empty(t, out.Merges)
	for _, pos := range [][2]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}} {
		assert.Equal(t, "Header", out.Text(pos[0], pos[1]), "cell %v", pos)
		require.NotNil(t, out.Cell(pos[0], pos[1]).Style)
		assert.True(t, out.Cell(pos[0], pos[1]).Style.Bold)
		assert.Nil(t, out.Cell(pos[0], pos[1]).Merge)
	}
	assert.Equal(t, "Tall", out.Text(4, 1))
	assert.Equal(t, "z", out.Text(4, 2))

	// input untouched
	assert.Len(t, g.Merges, 2)
	assert.Equal(t, "", g.Text(2, 2))
}

func TestNormalizeCellsIdempotent(t *testing.T) {
	once, err := NormalizeCells(mergedGrid(t))
	require.NoError(t, err)
	twice, err := NormalizeCells(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeCellsNeverLosesValues(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *models.Grid
	}{
		{"merged", mergedGrid},
		{"no merges", func(t *testing.T) *models.Grid { return gridOf(t, []string{"a", ""}, []string{"", "b"}) }},
		{"empty top-left over value", func(t *testing.T) *models.Grid {
			g := gridOf(t, []string{"", "kept"}, []string{"", ""})
			require.NoError(t, g.AddMerge(models.MergedRange{Row: 1, Col: 1, RowSpan: 1, ColSpan: 2}))
			return g
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.build(t)
			out, err := NormalizeCells(g)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, out.NonEmptyCount(), g.NonEmptyCount())
		})
	}
}

func TestNormalizeCellsRejectsOverlap(t *testing.T) {
	g := gridOf(t, []string{"a", "b"}, []string{"c", "d"})
	g.Merges = []models.MergedRange{
		{Row: 1, Col: 1, RowSpan: 2, ColSpan: 1},
		{Row: 2, Col: 1, RowSpan: 1, ColSpan: 2},
	}

	_, err := NormalizeCells(g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructuralViolation))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageNormalize, se.Stage)
}
