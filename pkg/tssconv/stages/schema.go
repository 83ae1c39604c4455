package stages

import "github.com/ukaji3/tssconv-go/pkg/tssconv/models"

// HeaderStyle returns the style of a canonical header cell.
func HeaderStyle(col models.Column) *models.Style {
	return &models.Style{
		Bold:       true,
		FontColor:  col.FontColor,
		FillColor:  col.Fill,
		Horizontal: "center",
		Vertical:   "center",
		WrapText:   true,
		Border:     true,
	}
}

// ProjectSchema builds the canonical template: the schema headers on the
// schema header row, styled, with column widths set. Only the presence of
// input matters, not its content.
func ProjectSchema(g *models.Grid, schema models.Schema) (*models.Grid, error) {
	if err := structural(StageSchema, g); err != nil {
		return nil, err
	}
	if g.Rows == 0 || g.Cols == 0 {
		return nil, newError(StageSchema, KindStructuralViolation, "input grid is empty")
	}
	if len(schema.Columns) != models.SchemaColumnCount {
		return nil, newError(StageSchema, KindStructuralViolation,
			"schema %s has %d columns, want %d", schema.Version, len(schema.Columns), models.SchemaColumnCount)
	}
	if schema.HeaderRow < 1 {
		return nil, newError(StageSchema, KindStructuralViolation, "schema header row %d is invalid", schema.HeaderRow)
	}

	out := models.NewGrid(schema.HeaderRow, len(schema.Columns))
	out.Name = g.Name
	out.ColWidths = make(map[int]float64, len(schema.Columns))
	for i, col := range schema.Columns {
		out.SetCell(schema.HeaderRow, i+1, models.Cell{Value: col.Name, Style: HeaderStyle(col)})
		if col.Width > 0 {
			out.ColWidths[i+1] = col.Width
		}
	}
	return out, nil
}
