package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

func testRecords() []models.ArticleRecord {
	return []models.ArticleRecord{
		{Name: "Cup", Number: "1001", Column: 18},
		{Name: "Plate", Number: "1002", Column: 19},
		{Name: "Ball pen", Number: "1003", Column: 20},
	}
}

func TestMatchEntities(t *testing.T) {
	cfg := testConfig()
	ref := column(t, cfg, "P")
	material := column(t, cfg, "Material Designation")
	general := column(t, cfg, "General Type Component(Type)")
	combination := column(t, cfg, "Combination")

	g := templateFor(t, cfg)
	refs := []string{"All items", "Cup, 1002", "", "Spoon", "plate", "Ball pen"}
	for i, r := range refs {
		row := cfg.Schema.FirstDataRow() + i
		g.Set(row, material, "Mat")
		g.Set(row, general, "Plastic")
		if r != "" {
			g.Set(row, ref, r)
		}
	}
	g.Set(15, general, "Finished Product")

	res, err := MatchEntities(g, testRecords(), cfg.Entities, cfg.Schema)
	require.NoError(t, err)
	out := res.Grid

	tests := []struct {
		name string
		row  int
		want []int
	}{
		{"wildcard binds every article", 11, []int{0, 1, 2}},
		{"name and number segments", 12, []int{0, 1}},
		{"empty reference binds every article", 13, []int{0, 1, 2}},
		{"case-insensitive name", 15, []int{1}},
		{"wildcard word inside a name", 16, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, res.Associations[tt.row])
			marked := map[int]bool{}
			for _, i := range tt.want {
				marked[i] = true
			}
			for i, rec := range testRecords() {
				want := ""
				if marked[i] {
					want = "X"
				}
				assert.Equal(t, want, out.Text(tt.row, rec.Column), "article %s", rec.Name)
			}
		})
	}

	assert.Equal(t, []int{14}, res.Unmatched)
	require.Len(t, res.Diagnostics, 1)
	assert.True(t, errors.Is(res.Diagnostics[0], ErrNotFound))
	assert.Equal(t, 14, res.Diagnostics[0].Row)
	assert.Equal(t, "Spoon", out.Text(14, ref), "unmatched rows are kept")

	// finished product normalization
	assert.Equal(t, "Art", out.Text(15, combination))
	assert.Equal(t, "", out.Text(15, general))
	assert.Equal(t, "", out.Text(15, material))
	assert.Equal(t, "Plastic", out.Text(16, general))
	assert.Equal(t, "", out.Text(16, combination))
}

func TestMatchEntitiesWithoutArticles(t *testing.T) {
	cfg := testConfig()
	general := column(t, cfg, "General Type Component(Type)")
	g := templateFor(t, cfg)
	g.Set(11, general, "finish")
	g.Set(11, column(t, cfg, "P"), "Spoon")

	res, err := MatchEntities(g, nil, cfg.Entities, cfg.Schema)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.True(t, errors.Is(res.Diagnostics[0], ErrNotFound))
	assert.Equal(t, 0, res.Diagnostics[0].Row)
	assert.Empty(t, res.Unmatched)
	assert.Empty(t, res.Associations)
	assert.Equal(t, models.SchemaColumnCount, res.Grid.Cols)
	assert.Equal(t, "Art", res.Grid.Text(11, column(t, cfg, "Combination")))
}

func TestIsWildcard(t *testing.T) {
	wildcards := testConfig().Entities.Wildcards
	tests := []struct {
		in   string
		want bool
	}{
		{"All", true},
		{"ALL ITEMS", true},
		{"For all products.", true},
		{"Ball pen", false},
		{"Tall cup", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsWildcard(tt.in, wildcards); got != tt.want {
			t.Errorf("IsWildcard(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReferences(t *testing.T) {
	m := match.NewMatcher(match.TierTokenSubset)
	rec := models.ArticleRecord{Name: "Cup", Number: "1001"}
	tests := []struct {
		ref  string
		want bool
	}{
		{"Cup", true},
		{"cup", true},
		{"1001", true},
		{"Plate; Cup", true},
		{"Plate\n1001", true},
		{"Cup holder", true},
		{"Cupboard", false},
		{"1002", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := References(m, tt.ref, rec); got != tt.want {
			t.Errorf("References(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
