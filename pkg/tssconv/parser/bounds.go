package parser

import "github.com/ukaji3/tssconv-go/pkg/tssconv/models"

// dataBounds returns the last row and column holding a value or covered by
// a merged range. Leading empty rows and columns are kept so cell positions
// match the sheet.
func dataBounds(rows [][]string, merges []models.MergedRange) (maxRow, maxCol int) {
	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			if rowIdx+1 > maxRow {
				maxRow = rowIdx + 1
			}
			if colIdx+1 > maxCol {
				maxCol = colIdx + 1
			}
		}
	}
	for _, m := range merges {
		if m.EndRow() > maxRow {
			maxRow = m.EndRow()
		}
		if m.EndCol() > maxCol {
			maxCol = m.EndCol()
		}
	}
	return
}
