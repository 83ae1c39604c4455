package stages

import (
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// EntityResult is the output of MatchEntities.
type EntityResult struct {
	Result
	// Associations maps a data row to the indexes of its article records.
	Associations map[int][]int
	// Unmatched lists data rows bound to no record.
	Unmatched []int
}

// MatchEntities associates each data row with the article records its
// reference column names. A wildcard literal binds the row to every record
// and takes precedence; otherwise each reference segment is compared with
// the record's name and number. Associated rows get the configured mark in
// the record's column. Finished-product rows are normalized first. Rows
// matching nothing are kept and reported. Without records no row is
// flagged; a single NotFound diagnostic covers the stage instead.
func MatchEntities(g *models.Grid, records []models.ArticleRecord, cfg config.EntitiesConfig, schema models.Schema) (*EntityResult, error) {
	if err := structural(StageEntities, g); err != nil {
		return nil, err
	}
	refCol, err := config.ResolveColumn(schema, cfg.ReferenceColumn)
	if err != nil {
		return nil, &Error{Stage: StageEntities, Kind: KindStructuralViolation, Message: "bad reference column", Err: err}
	}
	fp, err := resolveFinishedProduct(cfg.FinishedProduct, schema)
	if err != nil {
		return nil, err
	}

	res := &EntityResult{Result: Result{Grid: g.Clone()}, Associations: make(map[int][]int)}
	m := match.NewMatcher(minTier(cfg.MinTier))
	first := len(schema.Columns) + 1
	if len(records) == 0 {
		res.report(newError(StageEntities, KindNotFound, "no article records; rows left unassociated"))
	}

	for row := schema.FirstDataRow(); row <= g.Rows; row++ {
		if g.RowEmpty(row) {
			continue
		}
		fp.apply(res.Grid, row)
		if len(records) == 0 {
			continue
		}

		ref := g.TrimmedText(row, refCol)
		var hits []int
		if (ref == "" && cfg.EmptyMatchesAll) || IsWildcard(ref, cfg.Wildcards) {
			for i := range records {
				hits = append(hits, i)
			}
		} else {
			for i, rec := range records {
				if References(m, ref, rec) {
					hits = append(hits, i)
				}
			}
		}

		if len(hits) == 0 {
			res.Unmatched = append(res.Unmatched, row)
			res.report(newError(StageEntities, KindNotFound, "reference %q matches no article", ref).at(row, refCol))
			continue
		}
		res.Associations[row] = hits
		for _, i := range hits {
			col := records[i].Column
			if col == 0 {
				col = first + i
			}
			res.Grid.Set(row, col, cfg.Mark)
		}
	}
	return res, nil
}

// IsWildcard reports whether text contains one of the wildcard literals as
// whole words, ignoring case.
func IsWildcard(text string, wildcards []string) bool {
	for _, w := range wildcards {
		if match.ContainsPhrase(text, w) {
			return true
		}
	}
	return false
}

// References reports whether any segment of ref names the record by name
// or number. Segments are split on line breaks, commas and semicolons.
func References(m match.Matcher, ref string, rec models.ArticleRecord) bool {
	segments := strings.FieldsFunc(ref, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ';'
	})
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for _, id := range []string{rec.Name, rec.Number} {
			if id == "" {
				continue
			}
			if m.Compare(s, id).Matched() || match.ContainsPhrase(s, id) {
				return true
			}
		}
	}
	return false
}

type finishedProduct struct {
	column   int
	literals []string
	set      map[int]string
	clear    []int
}

func resolveFinishedProduct(cfg config.FinishedProductConfig, schema models.Schema) (*finishedProduct, error) {
	fp := &finishedProduct{set: make(map[int]string)}
	if cfg.Column == "" || len(cfg.Literals) == 0 {
		return fp, nil
	}
	bad := func(err error) error {
		return &Error{Stage: StageEntities, Kind: KindStructuralViolation, Message: "bad finished-product column", Err: err}
	}
	col, err := config.ResolveColumn(schema, cfg.Column)
	if err != nil {
		return nil, bad(err)
	}
	fp.column = col
	for _, l := range cfg.Literals {
		fp.literals = append(fp.literals, strings.ToLower(l))
	}
	for name, v := range cfg.Set {
		c, err := config.ResolveColumn(schema, name)
		if err != nil {
			return nil, bad(err)
		}
		fp.set[c] = v
	}
	for _, name := range cfg.Clear {
		c, err := config.ResolveColumn(schema, name)
		if err != nil {
			return nil, bad(err)
		}
		fp.clear = append(fp.clear, c)
	}
	return fp, nil
}

// apply normalizes a finished-product row in place.
func (fp *finishedProduct) apply(g *models.Grid, row int) {
	if fp.column == 0 {
		return
	}
	text := strings.ToLower(g.Text(row, fp.column))
	hit := false
	for _, l := range fp.literals {
		if strings.Contains(text, l) {
			hit = true
			break
		}
	}
	if !hit {
		return
	}
	for _, c := range fp.clear {
		g.Set(row, c, nil)
	}
	for c, v := range fp.set {
		g.Set(row, c, v)
	}
}
