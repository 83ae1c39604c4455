package parser

import (
	"fmt"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is used when a grid has no name.
const DefaultSheetName = "Sheet1"

// WriteGrid renders a grid into a new single-sheet workbook. The caller
// closes the returned file.
func WriteGrid(g *models.Grid, sheetName string) (*excelize.File, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if sheetName == "" {
		sheetName = g.Name
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeSheet(f, g, sheetName); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// SaveFile writes a grid to path as a workbook.
func SaveFile(g *models.Grid, path, sheetName string) error {
	f, err := WriteGrid(g, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, g *models.Grid, sheetName string) error {
	styles := make(map[models.Style]int)
	styleID := func(s models.Style) (int, error) {
		if id, ok := styles[s]; ok {
			return id, nil
		}
		id, err := f.NewStyle(toExcelize(s))
		if err != nil {
			return 0, err
		}
		styles[s] = id
		return id, nil
	}

	for r := 1; r <= g.Rows; r++ {
		for c := 1; c <= g.Cols; c++ {
			cell := g.Cell(r, c)
			if cell.Value == nil && cell.Style == nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if cell.Value != nil {
				if err := f.SetCellValue(sheetName, name, cell.Value); err != nil {
					return err
				}
			}
			if cell.Style != nil {
				id, err := styleID(*cell.Style)
				if err != nil {
					return fmt.Errorf("style of %s: %w", name, err)
				}
				if err := f.SetCellStyle(sheetName, name, name, id); err != nil {
					return err
				}
			}
		}
	}

	for _, m := range g.Merges {
		tl, _ := excelize.CoordinatesToCellName(m.Col, m.Row)
		br, _ := excelize.CoordinatesToCellName(m.EndCol(), m.EndRow())
		if err := f.MergeCell(sheetName, tl, br); err != nil {
			return fmt.Errorf("merge %s: %w", m, err)
		}
	}

	for c, w := range g.ColWidths {
		col, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func toExcelize(s models.Style) *excelize.Style {
	xs := &excelize.Style{}
	if s.Bold || s.FontColor != "" {
		xs.Font = &excelize.Font{Bold: s.Bold, Color: s.FontColor}
	}
	if s.FillColor != "" {
		xs.Fill = excelize.Fill{Type: "pattern", Color: []string{s.FillColor}, Pattern: 1}
	}
	if s.Horizontal != "" || s.Vertical != "" || s.Rotation != 0 || s.WrapText {
		xs.Alignment = &excelize.Alignment{
			Horizontal:   s.Horizontal,
			Vertical:     s.Vertical,
			TextRotation: s.Rotation,
			WrapText:     s.WrapText,
		}
	}
	if s.Border {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			xs.Border = append(xs.Border, excelize.Border{Type: side, Color: "000000", Style: 1})
		}
	}
	return xs
}
