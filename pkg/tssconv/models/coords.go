package models

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellName converts 1-based (col, row) to A1 notation. Invalid input yields "".
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// ColumnLetter converts a 1-based column number to its letter ("A", "AB").
func ColumnLetter(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}

// ColumnNumber converts a column letter to its 1-based number.
func ColumnNumber(letter string) (int, error) {
	return excelize.ColumnNameToNumber(strings.TrimSpace(letter))
}
