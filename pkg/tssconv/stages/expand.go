package stages

import (
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// ExpandRequirements turns each mapped row into one row per requirement it
// carries. Requirement columns run from the first column after the base
// columns (mapped, split and reconciliation key) to the end boundary. A
// requirement applies when the row's cell in that column holds a value
// other than a skip value; the expanded row gets the header-relative
// metadata of that column. A row without requirements is kept once.
// Multi-line split columns then append one row per line.
func ExpandRequirements(m *FieldMapping, source *models.Grid, cfg *config.Config) (*Result, error) {
	if m == nil || m.Grid == nil {
		return nil, newError(StageExpand, KindStructuralViolation, "missing field mapping")
	}
	if err := structural(StageExpand, source); err != nil {
		return nil, err
	}

	headerRow := cfg.Schema.HeaderRow
	metadata, err := metadataColumns(cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	splits, err := resolveSplits(source, m.Header, cfg, res)
	if err != nil {
		return nil, err
	}
	base := make(map[int]bool)
	for src := range m.Columns {
		base[src] = true
	}
	for _, s := range splits {
		base[s.source] = true
	}
	if key, err := models.ColumnNumber(cfg.Reconcile.KeyColumn); err == nil {
		base[key] = true
	}
	reqCols := requirementColumns(source, m.Boundary, base)

	in := m.Grid
	out := in.Clone()
	out.Truncate(headerRow)
	next := headerRow + 1
	emit := func(row int) int {
		copyRow(out, next, in, row)
		out.SetOrigin(next, in.Origin(row))
		next++
		return next - 1
	}

	for row := headerRow + 1; row <= in.Rows; row++ {
		origin := in.Origin(row)
		var applied []int
		for _, col := range reqCols {
			if origin > 0 && valid(source.TrimmedText(origin, col), cfg.Expansion.SkipValues) {
				applied = append(applied, col)
			}
		}
		if len(applied) == 0 {
			emit(row)
			continue
		}
		for _, col := range applied {
			r := emit(row)
			for _, md := range metadata {
				ref := m.Header.At(md.offset, 0).InColumn(col)
				out.Set(r, md.column, textValue(ref.Text(source)))
			}
		}
	}

	for _, s := range splits {
		for row := headerRow + 1; row <= in.Rows; row++ {
			origin := in.Origin(row)
			if origin == 0 {
				continue
			}
			text := source.TrimmedText(origin, s.source)
			if !valid(text, s.skip) {
				continue
			}
			for _, line := range splitLines(text) {
				r := emit(row)
				for _, md := range metadata {
					out.Set(r, md.column, nil)
				}
				for _, col := range s.clear {
					out.Set(r, col, nil)
				}
				out.Set(r, s.target, line)
			}
		}
	}

	res.Grid = out
	return res, nil
}

type metadataColumn struct {
	offset, column int
}

func metadataColumns(cfg *config.Config) ([]metadataColumn, error) {
	var out []metadataColumn
	for _, md := range cfg.Expansion.Metadata {
		col, err := cfg.Column(md.Column)
		if err != nil {
			return nil, &Error{Stage: StageExpand, Kind: KindStructuralViolation, Message: "bad metadata column", Err: err}
		}
		out = append(out, metadataColumn{offset: md.Offset, column: col})
	}
	return out, nil
}

type splitColumn struct {
	source, target int
	skip           []string
	clear          []int
}

// resolveSplits locates each split column by header label, falling back to
// its configured letter.
func resolveSplits(source *models.Grid, header models.Anchor, cfg *config.Config, res *Result) ([]splitColumn, error) {
	var out []splitColumn
	for _, spec := range cfg.Expansion.Splits {
		target, err := cfg.Column(spec.Target)
		if err != nil {
			return nil, &Error{Stage: StageExpand, Kind: KindStructuralViolation, Message: "bad split target", Err: err}
		}
		s := splitColumn{target: target, skip: spec.SkipValues}
		for _, ref := range spec.Clear {
			col, err := cfg.Column(ref)
			if err != nil {
				return nil, &Error{Stage: StageExpand, Kind: KindStructuralViolation, Message: "bad split clear column", Err: err}
			}
			s.clear = append(s.clear, col)
		}
		if len(spec.Labels) > 0 {
			a, err := FindAnchor(source, config.AnchorSpec{Name: "split column", Labels: spec.Labels}, Rows(header.Row, header.Row))
			if err == nil {
				s.source = a.Col
			}
		}
		if s.source == 0 && spec.Letter != "" {
			if n, err := models.ColumnNumber(spec.Letter); err == nil {
				s.source = n
			}
		}
		if s.source == 0 {
			e := notFound(StageExpand, config.AnchorSpec{Name: "split column", Labels: spec.Labels}, Rows(header.Row, header.Row))
			res.report(e)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// requirementColumns returns the columns after the last base column
// (mapped, split or reconciliation key), up to the boundary.
func requirementColumns(source *models.Grid, boundary int, base map[int]bool) []int {
	lastBase := 0
	for col := range base {
		if col > lastBase {
			lastBase = col
		}
	}
	last := source.Cols
	if boundary > 1 {
		last = boundary - 1
	}
	var cols []int
	for col := lastBase + 1; col <= last; col++ {
		cols = append(cols, col)
	}
	return cols
}

// valid reports whether a cell value is present and not a skip value.
func valid(text string, skip []string) bool {
	if text == "" {
		return false
	}
	n := match.Normalize(text)
	for _, s := range skip {
		if n == match.Normalize(s) {
			return false
		}
	}
	return true
}

// copyRow copies every cell of src row into dst row.
func copyRow(dst *models.Grid, dstRow int, src *models.Grid, srcRow int) {
	dst.Set(dstRow, 1, nil)
	for col := 1; col <= src.Cols; col++ {
		c := src.Cell(srcRow, col)
		dst.SetCell(dstRow, col, models.Cell{Value: c.Value, Style: c.Style})
	}
}
