package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// requirementSheet lays out the header at row 16, the per-requirement
// frequency and limit rows under a "Requirements" marker at rows 20-21 and
// three data rows at 22-24.
func requirementSheet(t *testing.T) *models.Grid {
	t.Helper()
	g := supplierSheet(t, 16, 5)
	for _, r := range []int{20, 21} {
		for c := 1; c <= g.Cols; c++ {
			g.Set(r, c, nil)
		}
	}
	g.Set(20, 1, "Requirements")
	g.Set(20, 9, "Yearly")
	g.Set(21, 9, "90 ppm")
	g.Set(20, 10, "Each lot")
	g.Set(21, 10, "Pass")

	g.Set(22, 9, "X")
	g.Set(22, 10, "X")
	g.Set(23, 9, "N/A")
	g.Set(23, 7, "N/A")
	g.Set(24, 10, "x")
	g.Set(24, 7, "Doc A\nDoc B\n")
	return g
}

func expandSheet(t *testing.T, cfg *config.Config, source *models.Grid) *Result {
	t.Helper()
	fm, err := MapFields(source, templateFor(t, cfg), cfg)
	require.NoError(t, err)
	res, err := ExpandRequirements(fm, source, cfg)
	require.NoError(t, err)
	return res
}

func TestExpandRequirements(t *testing.T) {
	cfg := testConfig()
	res := expandSheet(t, cfg, requirementSheet(t))
	out := res.Grid
	assert.Empty(t, res.Diagnostics)
	require.Equal(t, cfg.Schema.HeaderRow+6, out.Rows)

	var (
		source    = column(t, cfg, "Requirement Source/TED")
		subType   = column(t, cfg, "Sub-type")
		reg       = column(t, cfg, "Regulation or substances")
		frequency = column(t, cfg, "Frequency")
		limit     = column(t, cfg, "Limit")
		material  = column(t, cfg, "Material Designation")
		docType   = column(t, cfg, "Document type")
		info      = column(t, cfg, "Additional Information")
	)

	tests := []struct {
		name   string
		row    int
		origin int
		values map[int]string
	}{
		{"first requirement", 11, 22, map[int]string{
			source: "IOS-PRG-0272", subType: "Chemical", reg: "Lead", frequency: "Yearly", limit: "90 ppm",
			material: "Mat 3", docType: "TR",
		}},
		{"second requirement", 12, 22, map[int]string{
			source: "EN71-3", subType: "Migration", reg: "Heavy metals", frequency: "Each lot", limit: "Pass",
			material: "Mat 3",
		}},
		{"skip value keeps the row once", 13, 23, map[int]string{
			source: "", subType: "", material: "Mat 4", docType: "TR",
		}},
		{"single requirement", 14, 24, map[int]string{
			source: "EN71-3", material: "Mat 5", info: "",
		}},
		{"first split line", 15, 24, map[int]string{
			source: "", frequency: "", docType: "", material: "Mat 5", info: "Doc A",
		}},
		{"second split line", 16, 24, map[int]string{
			info: "Doc B", material: "Mat 5",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.origin, out.Origin(tt.row))
			for col, want := range tt.values {
				assert.Equal(t, want, out.Text(tt.row, col), "column %s", models.ColumnLetter(col))
			}
		})
	}
}

func TestExpandRequirementsKeepsHeaderBlock(t *testing.T) {
	cfg := testConfig()
	res := expandSheet(t, cfg, requirementSheet(t))
	for i, col := range cfg.Schema.Columns {
		assert.Equal(t, col.Name, res.Grid.Text(cfg.Schema.HeaderRow, i+1))
	}
}

func TestExpandRequirementsMissingSplitColumn(t *testing.T) {
	cfg := testConfig()
	cfg.Expansion.Splits[0].Labels = []string{"Safety sheet reference"}
	cfg.Expansion.Splits[0].Letter = ""

	res := expandSheet(t, cfg, requirementSheet(t))
	require.Len(t, res.Diagnostics, 1)
	assert.True(t, errors.Is(res.Diagnostics[0], ErrNotFound))
	// no split rows are appended
	assert.Equal(t, cfg.Schema.HeaderRow+4, res.Grid.Rows)
}

func TestExpandRequirementsNeedsMapping(t *testing.T) {
	_, err := ExpandRequirements(nil, supplierSheet(t, 16, 1), testConfig())
	assert.True(t, errors.Is(err, ErrStructuralViolation))
}

func TestRequirementColumns(t *testing.T) {
	g := blankGrid(2, 12)
	base := map[int]bool{1: true, 2: true, 8: true}

	assert.Equal(t, []int{9, 10}, requirementColumns(g, 11, base))
	assert.Equal(t, []int{9, 10, 11, 12}, requirementColumns(g, 0, base))
	assert.Empty(t, requirementColumns(g, 9, base))
}

func TestValid(t *testing.T) {
	skip := []string{"N/A", "Không"}
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"N/A", false},
		{"n/a", false},
		{"KHÔNG", false},
		{"X", true},
		{"N/A see note", true},
	}
	for _, tt := range tests {
		if got := valid(tt.in, skip); got != tt.want {
			t.Errorf("valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
