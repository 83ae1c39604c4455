// Package models defines the in-memory grid model shared by the loader,
// the transformation stages and the writer.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Style holds the subset of cell formatting the pipeline reads and writes.
// It is comparable so the writer can cache one excelize style per value.
type Style struct {
	// Bold renders the font in bold.
	Bold bool `json:"bold,omitempty"`
	// FontColor is an RGB hex color such as "FFFFFF".
	FontColor string `json:"font_color,omitempty"`
	// FillColor is an RGB hex solid fill color.
	FillColor string `json:"fill_color,omitempty"`
	// Rotation is the text rotation in degrees (0-180).
	Rotation int `json:"rotation,omitempty"`
	// Horizontal alignment ("left", "center", ...).
	Horizontal string `json:"horizontal,omitempty"`
	// Vertical alignment ("top", "center", ...).
	Vertical string `json:"vertical,omitempty"`
	// WrapText enables wrapping.
	WrapText bool `json:"wrap_text,omitempty"`
	// Border draws a thin border on all four sides.
	Border bool `json:"border,omitempty"`
}

// Cell is a single grid position.
type Cell struct {
	// Value is nil, string, int64 or float64.
	Value interface{} `json:"value,omitempty"`
	// Style is optional formatting.
	Style *Style `json:"style,omitempty"`
	// Merge points at the range this cell belongs to (never owned).
	Merge *MergedRange `json:"-"`
}

// Text returns the cell value as a string, "" for empty cells.
func (c Cell) Text() string {
	return ValueText(c.Value)
}

// IsEmpty reports whether the cell holds no visible text.
func (c Cell) IsEmpty() bool {
	return strings.TrimSpace(c.Text()) == ""
}

// ValueText renders a cell value the way it is compared and displayed.
func ValueText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// MergedRange represents a rectangular block backed by its top-left cell.
type MergedRange struct {
	// Row is the top row (1-based).
	Row int `json:"row"`
	// Col is the left column (1-based).
	Col int `json:"col"`
	// RowSpan is the number of rows covered (>= 1).
	RowSpan int `json:"row_span"`
	// ColSpan is the number of columns covered (>= 1).
	ColSpan int `json:"col_span"`
}

// EndRow returns the last row covered by the range.
func (m MergedRange) EndRow() int { return m.Row + m.RowSpan - 1 }

// EndCol returns the last column covered by the range.
func (m MergedRange) EndCol() int { return m.Col + m.ColSpan - 1 }

// Contains reports whether (row, col) lies inside the range.
func (m MergedRange) Contains(row, col int) bool {
	return row >= m.Row && row <= m.EndRow() && col >= m.Col && col <= m.EndCol()
}

// Overlaps reports whether two ranges share at least one cell.
func (m MergedRange) Overlaps(o MergedRange) bool {
	return m.Row <= o.EndRow() && o.Row <= m.EndRow() && m.Col <= o.EndCol() && o.Col <= m.EndCol()
}

// Grid is a rectangular, 1-indexed sheet of cells.
type Grid struct {
	// Name is the sheet name the grid was loaded from or will be written to.
	Name string
	// Rows is the declared row count.
	Rows int
	// Cols is the declared column count.
	Cols int
	// Merges lists the merged ranges; they never overlap.
	Merges []MergedRange
	// ColWidths maps a 1-based column to its width in characters.
	ColWidths map[int]float64
	// Origins maps a 1-based row to the source row it was derived from.
	Origins map[int]int

	cells [][]Cell
}

// NewGrid allocates an empty grid with the given dimensions.
func NewGrid(rows, cols int) *Grid {
	g := &Grid{Rows: rows, Cols: cols}
	g.cells = make([][]Cell, rows)
	for i := range g.cells {
		g.cells[i] = make([]Cell, cols)
	}
	return g
}

// FromValues builds a grid from row-major values. Every row must have the
// same length; a ragged input is reported, not padded.
func FromValues(values [][]interface{}) (*Grid, error) {
	cols := 0
	if len(values) > 0 {
		cols = len(values[0])
	}
	g := NewGrid(len(values), cols)
	for r, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r+1, len(row), cols)
		}
		for c, v := range row {
			g.cells[r][c].Value = v
		}
	}
	return g, nil
}

// InBounds reports whether (row, col) addresses a cell of the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 1 && row <= g.Rows && col >= 1 && col <= g.Cols
}

// Cell returns the cell at (row, col); out-of-bounds positions read as empty.
func (g *Grid) Cell(row, col int) Cell {
	if !g.InBounds(row, col) {
		return Cell{}
	}
	return g.cells[row-1][col-1]
}

// Text returns the text at (row, col).
func (g *Grid) Text(row, col int) string {
	return g.Cell(row, col).Text()
}

// Resolved returns the cell at (row, col), reading through a merge to its
// top-left cell.
func (g *Grid) Resolved(row, col int) Cell {
	c := g.Cell(row, col)
	if c.Merge != nil && (c.Merge.Row != row || c.Merge.Col != col) {
		return g.Cell(c.Merge.Row, c.Merge.Col)
	}
	return c
}

// TrimmedText returns the text at (row, col) without surrounding whitespace.
func (g *Grid) TrimmedText(row, col int) string {
	return strings.TrimSpace(g.Text(row, col))
}

// Set stores a value, growing the grid when the position lies outside it.
func (g *Grid) Set(row, col int, v interface{}) {
	g.ensure(row, col)
	g.cells[row-1][col-1].Value = v
}

// SetStyle stores a style, growing the grid when needed.
func (g *Grid) SetStyle(row, col int, s *Style) {
	g.ensure(row, col)
	g.cells[row-1][col-1].Style = s
}

// SetCell replaces the whole cell.
func (g *Grid) SetCell(row, col int, c Cell) {
	g.ensure(row, col)
	g.cells[row-1][col-1] = c
}

// ensure grows the grid so (row, col) is addressable. Growth keeps the grid
// rectangular.
func (g *Grid) ensure(row, col int) {
	if row < 1 || col < 1 {
		panic(fmt.Sprintf("models: invalid cell position (%d, %d)", row, col))
	}
	if col > g.Cols {
		for i := range g.cells {
			g.cells[i] = append(g.cells[i], make([]Cell, col-g.Cols)...)
		}
		g.Cols = col
	}
	for row > g.Rows {
		g.cells = append(g.cells, make([]Cell, g.Cols))
		g.Rows++
	}
}

// AddMerge registers a merged range and links every covered cell to it.
// Overlapping ranges are rejected.
func (g *Grid) AddMerge(m MergedRange) error {
	if m.RowSpan < 1 || m.ColSpan < 1 {
		return fmt.Errorf("merged range at (%d, %d) has empty span", m.Row, m.Col)
	}
	for _, existing := range g.Merges {
		if existing.Overlaps(m) {
			return fmt.Errorf("merged range %s overlaps %s", m, existing)
		}
	}
	g.ensure(m.EndRow(), m.EndCol())
	g.Merges = append(g.Merges, m)
	g.relink()
	return nil
}

// relink refreshes the cell back-references after Merges changed.
func (g *Grid) relink() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c].Merge = nil
		}
	}
	for i := range g.Merges {
		m := &g.Merges[i]
		for r := m.Row; r <= m.EndRow() && r <= g.Rows; r++ {
			for c := m.Col; c <= m.EndCol() && c <= g.Cols; c++ {
				g.cells[r-1][c-1].Merge = m
			}
		}
	}
}

// ClearMerges removes every merged range, leaving the cell values alone.
func (g *Grid) ClearMerges() {
	g.Merges = nil
	g.relink()
}

// Clone returns a deep copy. Styles are shared because they are treated as
// immutable values once assigned.
func (g *Grid) Clone() *Grid {
	out := &Grid{Name: g.Name, Rows: g.Rows, Cols: g.Cols}
	out.cells = make([][]Cell, len(g.cells))
	for i, row := range g.cells {
		out.cells[i] = append([]Cell(nil), row...)
	}
	if len(g.Merges) > 0 {
		out.Merges = append([]MergedRange(nil), g.Merges...)
	}
	out.relink()
	if g.ColWidths != nil {
		out.ColWidths = make(map[int]float64, len(g.ColWidths))
		for k, v := range g.ColWidths {
			out.ColWidths[k] = v
		}
	}
	if g.Origins != nil {
		out.Origins = make(map[int]int, len(g.Origins))
		for k, v := range g.Origins {
			out.Origins[k] = v
		}
	}
	return out
}

// Validate checks the shape invariants: rectangular rows and
// non-overlapping, in-bounds merges.
func (g *Grid) Validate() error {
	if len(g.cells) != g.Rows {
		return fmt.Errorf("grid declares %d rows but holds %d", g.Rows, len(g.cells))
	}
	for i, row := range g.cells {
		if len(row) != g.Cols {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), g.Cols)
		}
	}
	for i, m := range g.Merges {
		if m.RowSpan < 1 || m.ColSpan < 1 {
			return fmt.Errorf("merged range %s has empty span", m)
		}
		if m.Row < 1 || m.Col < 1 || m.EndRow() > g.Rows || m.EndCol() > g.Cols {
			return fmt.Errorf("merged range %s lies outside the %dx%d grid", m, g.Rows, g.Cols)
		}
		for _, o := range g.Merges[i+1:] {
			if m.Overlaps(o) {
				return fmt.Errorf("merged range %s overlaps %s", m, o)
			}
		}
	}
	return nil
}

// NonEmptyCount returns the number of cells holding visible text.
func (g *Grid) NonEmptyCount() int {
	n := 0
	for _, row := range g.cells {
		for _, c := range row {
			if !c.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// RowEmpty reports whether every cell in the row is empty.
func (g *Grid) RowEmpty(row int) bool {
	for c := 1; c <= g.Cols; c++ {
		if !g.Cell(row, c).IsEmpty() {
			return false
		}
	}
	return true
}

// RowValues returns a copy of the values in a row.
func (g *Grid) RowValues(row int) []interface{} {
	out := make([]interface{}, g.Cols)
	for c := 1; c <= g.Cols; c++ {
		out[c-1] = g.Cell(row, c).Value
	}
	return out
}

// LastDataColumn returns the right-most column holding any text in rows
// [fromRow, toRow], or 0 when the block is empty.
func (g *Grid) LastDataColumn(fromRow, toRow int) int {
	for c := g.Cols; c >= 1; c-- {
		for r := max(fromRow, 1); r <= toRow && r <= g.Rows; r++ {
			if !g.Cell(r, c).IsEmpty() {
				return c
			}
		}
	}
	return 0
}

// DeleteRow removes a row and shifts everything below it up by one.
// Merges touching the row are dropped; callers only delete from unmerged
// data regions.
func (g *Grid) DeleteRow(row int) {
	if row < 1 || row > g.Rows {
		return
	}
	g.cells = append(g.cells[:row-1], g.cells[row:]...)
	g.Rows--
	kept := g.Merges[:0]
	for _, m := range g.Merges {
		switch {
		case m.EndRow() < row:
			kept = append(kept, m)
		case m.Row > row:
			m.Row--
			kept = append(kept, m)
		}
	}
	g.Merges = kept
	g.relink()
	if g.Origins != nil {
		shifted := make(map[int]int, len(g.Origins))
		for r, o := range g.Origins {
			switch {
			case r < row:
				shifted[r] = o
			case r > row:
				shifted[r-1] = o
			}
		}
		g.Origins = shifted
	}
}

// Truncate drops every row after n, with the merges and origins they hold.
func (g *Grid) Truncate(n int) {
	if n < 0 || n >= g.Rows {
		return
	}
	g.cells = g.cells[:n]
	g.Rows = n
	kept := g.Merges[:0]
	for _, m := range g.Merges {
		if m.EndRow() <= n {
			kept = append(kept, m)
		}
	}
	g.Merges = kept
	g.relink()
	for r := range g.Origins {
		if r > n {
			delete(g.Origins, r)
		}
	}
}

// SetOrigin records the source row that row was derived from.
func (g *Grid) SetOrigin(row, source int) {
	if g.Origins == nil {
		g.Origins = make(map[int]int)
	}
	g.Origins[row] = source
}

// Origin returns the source row for row, or 0.
func (g *Grid) Origin(row int) int {
	return g.Origins[row]
}

// String renders the range in A1 notation.
func (m MergedRange) String() string {
	return fmt.Sprintf("%s:%s", CellName(m.Col, m.Row), CellName(m.EndCol(), m.EndRow()))
}
