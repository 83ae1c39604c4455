package stages

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

const headerLabel = "General Type/Sub-Type in Connect"

// gridOf builds a grid from text rows, padding short rows. "" is an empty cell.
func gridOf(t *testing.T, rows ...[]string) *models.Grid {
	t.Helper()
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = make([]interface{}, cols)
		for j, s := range r {
			if s != "" {
				values[i][j] = s
			}
		}
	}
	g, err := models.FromValues(values)
	require.NoError(t, err)
	return g
}

// blankGrid returns an empty grid of the given size.
func blankGrid(rows, cols int) *models.Grid {
	return models.NewGrid(rows, cols)
}

// supplierSheet builds a source sheet with the header anchor at headerRow in
// column A and n data rows starting at headerRow+4:
//
//	A: general type  B: component identity  E: producer  F: material name
//	G: SD            H: applies to          I..J: requirement columns
//	K: Oldest TR date
func supplierSheet(t *testing.T, headerRow, n int) *models.Grid {
	t.Helper()
	g := blankGrid(headerRow+3+n, 11)
	g.Set(headerRow, 1, headerLabel)
	g.Set(headerRow, 2, "Component Identity")
	g.Set(headerRow, 5, "Producer")
	g.Set(headerRow, 6, "Material Name")
	g.Set(headerRow, 7, "SD")
	g.Set(headerRow, 8, "Applies to article")
	g.Set(headerRow, 9, "IOS-PRG-0272")
	g.Set(headerRow, 10, "EN71-3")
	g.Set(headerRow, 11, "Oldest TR date")
	g.Set(headerRow+1, 9, "Chemical")
	g.Set(headerRow+1, 10, "Migration")
	g.Set(headerRow+2, 9, "Lead")
	g.Set(headerRow+2, 10, "Heavy metals")
	for i := 0; i < n; i++ {
		r := headerRow + 4 + i
		g.Set(r, 1, "Plastic")
		g.Set(r, 2, fmt.Sprintf("Part %d", i+1))
		g.Set(r, 5, fmt.Sprintf("Producer %d", i+1))
		g.Set(r, 6, fmt.Sprintf("Mat %d", i+1))
	}
	return g
}

func testConfig() *config.Config {
	return config.DefaultConfig()
}

func column(t *testing.T, cfg *config.Config, name string) int {
	t.Helper()
	col, err := cfg.Column(name)
	require.NoError(t, err)
	return col
}
