// Package parser reads workbook sheets into the grid model and writes grids
// back out as workbooks.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound indicates the requested sheet is not in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// defaultColWidth is the width excelize reports for columns without an
// explicit width.
const defaultColWidth = 9.140625

// LoadFile opens a workbook and loads one sheet. An empty sheetName selects
// the active sheet.
func LoadFile(path, sheetName string) (*models.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadGrid(f, sheetName)
}

// LoadGrid reads a sheet into a grid: values, merged ranges, styles and
// column widths. The grid spans the data bounds extended by any merged
// range reaching past them.
func LoadGrid(f *excelize.File, sheetName string) (*models.Grid, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	mergeCells, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, err
	}
	var merges []models.MergedRange
	for _, mc := range mergeCells {
		m, err := parseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merged range %v: %w", mc, err)
		}
		merges = append(merges, m)
	}

	maxRow, maxCol := dataBounds(rows, merges)
	g := models.NewGrid(maxRow, maxCol)
	g.Name = sheetName

	styles := newStyleReader(f)
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= maxCol; c++ {
			cell, _ := excelize.CoordinatesToCellName(c, r)
			if r <= len(rows) && c <= len(rows[r-1]) && rows[r-1][c-1] != "" {
				v, err := cellValue(f, sheetName, cell, rows[r-1][c-1])
				if err != nil {
					return nil, err
				}
				g.Set(r, c, v)
			}
			st, err := styles.read(sheetName, cell)
			if err != nil {
				return nil, fmt.Errorf("style of %s: %w", cell, err)
			}
			if st != nil {
				g.SetStyle(r, c, st)
			}
		}
	}

	for _, m := range merges {
		if err := g.AddMerge(m); err != nil {
			return nil, err
		}
	}

	for c := 1; c <= maxCol; c++ {
		name, _ := excelize.ColumnNumberToName(c)
		w, err := f.GetColWidth(sheetName, name)
		if err != nil {
			return nil, err
		}
		if w != defaultColWidth {
			if g.ColWidths == nil {
				g.ColWidths = make(map[int]float64)
			}
			g.ColWidths[c] = w
		}
	}
	return g, nil
}

// cellValue converts the raw text of a numeric cell with parseValue. Text
// cells stay strings, so "0012345" keeps its leading zeros.
func cellValue(f *excelize.File, sheetName, cell, raw string) (interface{}, error) {
	typ, err := f.GetCellType(sheetName, cell)
	if err != nil {
		return nil, fmt.Errorf("type of %s: %w", cell, err)
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return parseValue(raw), nil
	}
	return raw, nil
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseRange parses a range string like $A$1:$D$10 into a merged range.
func parseRange(rangeStr string) (models.MergedRange, error) {
	rangeStr = strings.ReplaceAll(rangeStr, "$", "")

	parts := strings.Split(rangeStr, ":")
	if len(parts) != 2 {
		return models.MergedRange{}, fmt.Errorf("invalid range %q", rangeStr)
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.MergedRange{}, err
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.MergedRange{}, err
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	return models.MergedRange{
		Row:     startRow,
		Col:     startCol,
		RowSpan: endRow - startRow + 1,
		ColSpan: endCol - startCol + 1,
	}, nil
}

// styleReader converts excelize styles to grid styles, once per style index.
type styleReader struct {
	f     *excelize.File
	cache map[int]*models.Style
}

func newStyleReader(f *excelize.File) *styleReader {
	return &styleReader{f: f, cache: make(map[int]*models.Style)}
}

func (s *styleReader) read(sheetName, cell string) (*models.Style, error) {
	idx, err := s.f.GetCellStyle(sheetName, cell)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	if st, ok := s.cache[idx]; ok {
		return st, nil
	}
	xs, err := s.f.GetStyle(idx)
	if err != nil {
		return nil, err
	}
	st := fromExcelize(xs)
	s.cache[idx] = st
	return st, nil
}

// fromExcelize keeps the formatting the grid model carries; nil when none of
// it is set.
func fromExcelize(xs *excelize.Style) *models.Style {
	if xs == nil {
		return nil
	}
	var st models.Style
	if xs.Font != nil {
		st.Bold = xs.Font.Bold
		st.FontColor = rgb(xs.Font.Color)
	}
	if xs.Fill.Type == "pattern" && xs.Fill.Pattern == 1 && len(xs.Fill.Color) > 0 {
		st.FillColor = rgb(xs.Fill.Color[0])
	}
	if xs.Alignment != nil {
		st.Horizontal = xs.Alignment.Horizontal
		st.Vertical = xs.Alignment.Vertical
		st.Rotation = xs.Alignment.TextRotation
		st.WrapText = xs.Alignment.WrapText
	}
	st.Border = len(xs.Border) > 0
	if st == (models.Style{}) {
		return nil
	}
	return &st
}

// rgb normalizes "#RRGGBB", "AARRGGBB" and "rrggbb" to "RRGGBB".
func rgb(color string) string {
	color = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(color), "#"))
	if len(color) == 8 {
		color = color[2:]
	}
	return color
}
