package stages

import (
	"sort"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// FieldMapping is the output of MapFields.
type FieldMapping struct {
	Result
	// Header is the header anchor of the source grid.
	Header models.Anchor
	// Columns maps a source column to its canonical column.
	Columns map[int]int
	// Labels holds the source label each mapped column was matched on.
	Labels map[int]string
	// FirstRow and LastRow bound the source data rows (LastRow < FirstRow
	// when there are none).
	FirstRow int
	LastRow  int
	// Boundary is the end-boundary column, 0 when absent.
	Boundary int
}

// MappedRows returns the number of source rows projected.
func (fm *FieldMapping) MappedRows() int {
	if fm.LastRow < fm.FirstRow {
		return 0
	}
	return fm.LastRow - fm.FirstRow + 1
}

type candidate struct {
	src, dst int
	res      match.Result
}

// MapFields projects the data rows of source onto the canonical columns of
// template. Every source row between the data start and the last row with a
// mapped value yields exactly one output row, in order, starting below the
// schema header row.
func MapFields(source, template *models.Grid, cfg *config.Config) (*FieldMapping, error) {
	if err := structural(StageFieldMap, source); err != nil {
		return nil, err
	}
	if err := structural(StageFieldMap, template); err != nil {
		return nil, err
	}
	header, err := headerAnchor(StageFieldMap, source, cfg.Anchors)
	if err != nil {
		return nil, err
	}

	fm := &FieldMapping{
		Header:   header.Anchor,
		Columns:  make(map[int]int),
		Labels:   make(map[int]string),
		Boundary: boundaryColumn(source, cfg.Anchors, header.Anchor),
	}
	fm.report(header.Diagnostics(StageFieldMap)...)

	lastCol := source.Cols
	if fm.Boundary > 1 {
		lastCol = fm.Boundary - 1
	}

	labels := sourceLabels(source, header.Anchor, cfg.Anchors.LabelRows, lastCol)
	fm.assign(labels, cfg.Schema, match.NewMatcher(minTier(cfg.Mapping.MinTier)))
	if len(fm.Columns) == 0 {
		e := newError(StageFieldMap, KindNotFound, "no source column matches the canonical schema").at(header.Row, 0)
		e.Labels = cfg.Schema.Names()
		return nil, e
	}

	fm.FirstRow = dataStart(source, header.Anchor, cfg.Anchors, lastCol)
	fm.LastRow = fm.FirstRow - 1
	for r := source.Rows; r >= fm.FirstRow; r-- {
		if fm.rowHasValue(source, r) {
			fm.LastRow = r
			break
		}
	}

	constants := make(map[int]string)
	for name, v := range cfg.Mapping.Constants {
		if col, err := cfg.Column(name); err == nil {
			constants[col] = v
		}
	}

	out := template.Clone()
	next := cfg.Schema.FirstDataRow()
	for r := fm.FirstRow; r <= fm.LastRow; r++ {
		row := next
		next++
		out.Set(row, 1, nil)
		for src, dst := range fm.Columns {
			if v := source.Cell(r, src).Value; v != nil {
				out.Set(row, dst, v)
			}
		}
		for col, v := range constants {
			if out.Cell(row, col).IsEmpty() {
				out.Set(row, col, v)
			}
		}
		out.SetOrigin(row, r)
	}
	fm.Grid = out
	return fm, nil
}

// sourceLabels reads the label of each source column: the header row text,
// or the first non-empty label row below it.
func sourceLabels(g *models.Grid, header models.Anchor, labelRows, lastCol int) map[int]string {
	labels := make(map[int]string)
	for col := 1; col <= lastCol; col++ {
		ref := header.At(0, 0).InColumn(col)
		for i := 0; i <= labelRows; i++ {
			if text := ref.Down(i).Text(g); text != "" {
				labels[col] = text
				break
			}
		}
	}
	return labels
}

// assign pairs source and canonical columns greedily by score. Equal scores
// go to the earliest source column; the losers are reported.
func (fm *FieldMapping) assign(labels map[int]string, schema models.Schema, m match.Matcher) {
	var cands []candidate
	for src, label := range labels {
		for i, col := range schema.Columns {
			names := append([]string{col.Name}, col.Aliases...)
			if r := m.Match(label, names); r.Matched() {
				cands = append(cands, candidate{src: src, dst: i + 1, res: r})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.res.Better(b.res) || b.res.Better(a.res) {
			return a.res.Better(b.res)
		}
		if a.src != b.src {
			return a.src < b.src
		}
		return a.dst < b.dst
	})

	usedDst := make(map[int]candidate)
	for _, c := range cands {
		if _, ok := fm.Columns[c.src]; ok {
			continue
		}
		if won, ok := usedDst[c.dst]; ok {
			if !won.res.Better(c.res) {
				e := newError(StageFieldMap, KindAmbiguousMatch, "source label %q also matches %q; kept column %s",
					labels[c.src], schema.Columns[c.dst-1].Name, models.ColumnLetter(won.src))
				e.Col = c.src
				fm.report(e)
			}
			continue
		}
		usedDst[c.dst] = c
		fm.Columns[c.src] = c.dst
		fm.Labels[c.src] = labels[c.src]
	}
}

// dataStart returns the first data row: DataStartOffset rows below the
// data-start anchor when one is found under the label rows, otherwise the
// row after the label rows.
func dataStart(g *models.Grid, header models.Anchor, anchors config.AnchorsConfig, lastCol int) int {
	fallback := header.At(anchors.LabelRows+1, 0).Row()
	if len(anchors.DataStart.Labels) == 0 || anchors.DataStartSearchRows < 1 {
		return fallback
	}
	w := Window{
		FirstRow: header.Row + anchors.LabelRows + 1,
		LastRow:  header.Row + anchors.DataStartSearchRows,
		LastCol:  lastCol,
	}
	a, err := FindAnchor(g, anchors.DataStart, w)
	if err != nil {
		return fallback
	}
	offset := anchors.DataStartOffset
	if offset < 1 {
		offset = 1
	}
	return a.At(offset, 0).Row()
}

func (fm *FieldMapping) rowHasValue(g *models.Grid, row int) bool {
	for src := range fm.Columns {
		if !g.Cell(row, src).IsEmpty() {
			return true
		}
	}
	return false
}
