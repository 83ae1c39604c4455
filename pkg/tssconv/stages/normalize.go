// Package stages implements the transformation stages of the pipeline.
// Every stage is a pure function: it validates its input, never mutates it
// and returns a freshly allocated grid.
package stages

import "github.com/ukaji3/tssconv-go/pkg/tssconv/models"

// NormalizeCells resolves every merged range by copying the top-left value
// and style into each covered position, then drops the ranges.
func NormalizeCells(g *models.Grid) (*models.Grid, error) {
	if err := structural(StageNormalize, g); err != nil {
		return nil, err
	}

	out := g.Clone()
	for _, m := range g.Merges {
		top := g.Cell(m.Row, m.Col)
		for r := m.Row; r <= m.EndRow(); r++ {
			for c := m.Col; c <= m.EndCol(); c++ {
				if r == m.Row && c == m.Col {
					continue
				}
				// An empty top-left never erases a covered value.
				if top.IsEmpty() && !g.Cell(r, c).IsEmpty() {
					continue
				}
				out.SetCell(r, c, models.Cell{Value: top.Value, Style: top.Style})
			}
		}
	}
	out.ClearMerges()
	return out, nil
}
