package stages

import (
	"sort"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// ArticleResult holds the records found above the header anchor.
type ArticleResult struct {
	Records []models.ArticleRecord
	// Name and Number are the label cells, nil when absent.
	Name   *models.Anchor
	Number *models.Anchor
	// Diagnostics carries the NotFound condition for single-subject documents.
	Diagnostics []*Error
}

// ExtractArticles searches upward from the header anchor for the nearest
// row holding both the article-name and article-number labels, then reads
// (name, number) pairs from there: downward in the label columns for the
// rows layout, rightward along the label row for the columns layout. Reading stops at two
// consecutive empty pairs, at the header anchor row or end boundary, or at
// the grid edge. Zero records is a valid outcome.
func ExtractArticles(original *models.Grid, anchors config.AnchorsConfig) (*ArticleResult, error) {
	if err := structural(StageArticles, original); err != nil {
		return nil, err
	}
	header, err := headerAnchor(StageArticles, original, anchors)
	if err != nil {
		return nil, err
	}

	res := &ArticleResult{}
	last := header.Row - 1
	if anchors.ArticleSearchRows > 0 && anchors.ArticleSearchRows < last {
		last = anchors.ArticleSearchRows
	}
	w := Rows(1, last)
	if last < 1 {
		res.Diagnostics = append(res.Diagnostics, notFound(StageArticles, anchors.ArticleName, w))
		return res, nil
	}

	name, number := articleLabels(original, anchors, w)
	if name == nil {
		spec := anchors.ArticleName
		spec.Labels = append(append([]string(nil), anchors.ArticleName.Labels...), anchors.ArticleNumber.Labels...)
		res.Diagnostics = append(res.Diagnostics, notFound(StageArticles, spec, w))
		return res, nil
	}
	res.Name, res.Number = name, number

	if anchors.ArticleLayout == config.ArticleColumns {
		res.Records = articlesRightward(original, anchors, *name, *number)
	} else {
		res.Records = articlesDownward(original, *name, *number, header.Row)
	}
	return res, nil
}

func articlesDownward(g *models.Grid, name, number models.Anchor, headerRow int) []models.ArticleRecord {
	var out []models.ArticleRecord
	empties := 0
	for ref := name.At(1, 0); ref.Row() < headerRow && ref.Row() <= g.Rows; ref = ref.Down(1) {
		n := ref.Text(g)
		num := ref.InColumn(number.Col).Text(g)
		if n == "" && num == "" {
			empties++
			if empties == 2 {
				break
			}
			continue
		}
		empties = 0
		out = append(out, models.ArticleRecord{Name: n, Number: num, SourceRow: ref.Row()})
	}
	return out
}

// articlesRightward pairs adjacent cells (name, number) in the label row,
// starting after the right-most label.
func articlesRightward(g *models.Grid, anchors config.AnchorsConfig, name, number models.Anchor) []models.ArticleRecord {
	last := g.Cols
	if len(anchors.EndBoundary.Labels) > 0 {
		if b, err := FindAnchor(g, anchors.EndBoundary, Rows(name.Row, name.Row)); err == nil && b.Col > name.Col {
			last = b.Col - 1
		}
	}
	var out []models.ArticleRecord
	empties := 0
	for ref := name.At(0, max(name.Col, number.Col)-name.Col+1); ref.Col()+1 <= last; ref = ref.Right(2) {
		n := ref.Text(g)
		num := ref.Right(1).Text(g)
		if n == "" && num == "" {
			empties++
			if empties == 2 {
				break
			}
			continue
		}
		empties = 0
		out = append(out, models.ArticleRecord{Name: n, Number: num, SourceRow: name.Row})
	}
	return out
}

// articleLabels searches upward from the bottom of the window, the row
// nearest the header first, for a row holding both an article-name and a
// distinct article-number label. Within a row the left-most name wins.
func articleLabels(g *models.Grid, anchors config.AnchorsConfig, w Window) (*models.Anchor, *models.Anchor) {
	names := FindAnchors(g, anchors.ArticleName, w)
	sort.SliceStable(names, func(i, j int) bool {
		return names[i].Row > names[j].Row
	})
	for _, name := range names {
		for _, number := range FindAnchors(g, anchors.ArticleNumber, Rows(name.Row, name.Row)) {
			if number.Col == name.Col {
				continue
			}
			n, num := name, number
			return &n, &num
		}
	}
	return nil, nil
}

// PlaceArticles appends one column per record after the canonical columns:
// the number on the schema header row and the name above it, rotated and
// filled with the accent color. The returned records carry their column.
func PlaceArticles(template *models.Grid, records []models.ArticleRecord, schema models.Schema, opts config.ArticlesConfig) (*Result, []models.ArticleRecord, error) {
	if err := structural(StageArticles, template); err != nil {
		return nil, nil, err
	}

	res := &Result{Grid: template.Clone()}
	placed := make([]models.ArticleRecord, len(records))
	if res.Grid.ColWidths == nil && opts.Width > 0 {
		res.Grid.ColWidths = make(map[int]float64)
	}

	first := len(schema.Columns) + 1
	nameRows := schema.HeaderRow - 1
	for i, rec := range records {
		col := first + i
		rec.Column = col
		placed[i] = rec

		res.Grid.SetCell(schema.HeaderRow, col, models.Cell{
			Value: textValue(rec.Number),
			Style: &models.Style{FillColor: opts.Fill, Horizontal: "center", Vertical: "center", Border: true},
		})
		if nameRows < 1 {
			continue
		}
		nameStyle := &models.Style{
			FillColor:  opts.Fill,
			Rotation:   opts.Rotation,
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		}
		fill := &models.Style{FillColor: opts.Fill}
		res.Grid.SetCell(1, col, models.Cell{Value: textValue(rec.Name), Style: nameStyle})
		for r := 2; r <= nameRows; r++ {
			res.Grid.SetStyle(r, col, fill)
		}
		if opts.MergeNames && nameRows > 1 {
			if err := res.Grid.AddMerge(models.MergedRange{Row: 1, Col: col, RowSpan: nameRows, ColSpan: 1}); err != nil {
				e := newError(StageArticles, KindStructuralViolation, "cannot merge article name %q", rec.Name).at(1, col)
				e.Err = err
				return nil, nil, e
			}
		}
		if opts.Width > 0 {
			res.Grid.ColWidths[col] = opts.Width
		}
	}
	return res, placed, nil
}

// textValue stores "" as an empty cell.
func textValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
