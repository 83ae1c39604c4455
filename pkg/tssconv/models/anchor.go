package models

import "fmt"

// Anchor is a located cell whose text identifies a structurally significant
// position.
type Anchor struct {
	// Row is the 1-based row of the matched cell.
	Row int `json:"row"`
	// Col is the 1-based column of the matched cell.
	Col int `json:"col"`
	// Text is the cell text as found.
	Text string `json:"text"`
	// Label is the candidate label that matched.
	Label string `json:"label"`
	// Tier names the matching tier ("exact", "normalized", "token-subset").
	Tier string `json:"tier"`
	// Confidence is the match confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// At returns a reference offset from the anchor.
func (a Anchor) At(dRow, dCol int) AnchorRef {
	return AnchorRef{Anchor: a, DRow: dRow, DCol: dCol}
}

// Cell returns the A1 name of the anchor cell.
func (a Anchor) Cell() string {
	return CellName(a.Col, a.Row)
}

func (a Anchor) String() string {
	return fmt.Sprintf("%q at %s (%s, %.2f)", a.Text, a.Cell(), a.Tier, a.Confidence)
}

// AnchorRef addresses a cell relative to an anchor.
type AnchorRef struct {
	Anchor Anchor
	DRow   int
	DCol   int
}

// Row returns the absolute row.
func (r AnchorRef) Row() int { return r.Anchor.Row + r.DRow }

// Col returns the absolute column.
func (r AnchorRef) Col() int { return r.Anchor.Col + r.DCol }

// Down returns a reference n rows further down.
func (r AnchorRef) Down(n int) AnchorRef {
	r.DRow += n
	return r
}

// Right returns a reference n columns further right.
func (r AnchorRef) Right(n int) AnchorRef {
	r.DCol += n
	return r
}

// InColumn returns a reference on the same row in an absolute column.
func (r AnchorRef) InColumn(col int) AnchorRef {
	r.DCol = col - r.Anchor.Col
	return r
}

// Text reads the referenced cell from g.
func (r AnchorRef) Text(g *Grid) string {
	return g.TrimmedText(r.Row(), r.Col())
}
