package stages

import (
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// Reconcile merges the key column of the original grid into the target
// column of every data row, then splits the target on line breaks, drops
// normalized duplicates (first occurrence wins) and joins the rest with the
// configured delimiter. Rows are matched to the original through their
// origin. A row with an empty key is deduplicated alone and reported as
// degraded.
func Reconcile(g, original *models.Grid, cfg config.ReconcileConfig, schema models.Schema) (*Result, error) {
	if err := structural(StageReconcile, g); err != nil {
		return nil, err
	}
	if err := structural(StageReconcile, original); err != nil {
		return nil, err
	}
	keyCol, err := models.ColumnNumber(cfg.KeyColumn)
	if err != nil {
		return nil, &Error{Stage: StageReconcile, Kind: KindStructuralViolation, Message: "bad key column", Err: err}
	}
	target, err := config.ResolveColumn(schema, cfg.TargetColumn)
	if err != nil {
		return nil, &Error{Stage: StageReconcile, Kind: KindStructuralViolation, Message: "bad target column", Err: err}
	}

	res := &Result{Grid: g.Clone()}
	for row := schema.FirstDataRow(); row <= g.Rows; row++ {
		if g.RowEmpty(row) {
			continue
		}
		key := ""
		if origin := g.Origin(row); origin > 0 {
			key = strings.TrimSpace(original.Resolved(origin, keyCol).Text())
		}
		text := g.Text(row, target)
		if key == "" {
			res.report(newError(StageReconcile, KindDegradedReconciliation,
				"key column %s is empty; deduplicating alone", cfg.KeyColumn).at(row, target))
		} else if strings.TrimSpace(text) == "" {
			text = key
		}

		values := DedupValues(splitLines(text))
		if len(values) == 0 {
			continue
		}
		res.Grid.Set(row, target, strings.Join(values, cfg.Delimiter))
	}

	if cfg.DedupRows {
		res.Grid = DeduplicateRows(res.Grid, schema.FirstDataRow())
	}
	return res, nil
}

// DedupValues keeps the first of each group of values equal after
// normalization. Values that still differ once normalized are all kept.
func DedupValues(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		k := match.Normalize(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// DeduplicateRows trims trailing whitespace from text cells at or below
// fromRow and removes rows identical to an earlier row, keeping the first.
// Empty rows are left in place.
func DeduplicateRows(g *models.Grid, fromRow int) *models.Grid {
	out := g.Clone()
	for row := fromRow; row <= out.Rows; row++ {
		for col := 1; col <= out.Cols; col++ {
			if s, ok := out.Cell(row, col).Value.(string); ok {
				if t := strings.TrimRight(s, " \t\r\n"); t != s {
					out.Set(row, col, t)
				}
			}
		}
	}

	seen := make(map[string]bool)
	var dups []int
	for row := fromRow; row <= out.Rows; row++ {
		if out.RowEmpty(row) {
			continue
		}
		k := rowKey(out, row)
		if seen[k] {
			dups = append(dups, row)
			continue
		}
		seen[k] = true
	}
	for i := len(dups) - 1; i >= 0; i-- {
		out.DeleteRow(dups[i])
	}
	return out
}

func rowKey(g *models.Grid, row int) string {
	parts := make([]string, g.Cols)
	for col := 1; col <= g.Cols; col++ {
		parts[col-1] = g.Text(row, col)
	}
	return strings.Join(parts, "\x00")
}

// splitLines splits on CR, LF and CRLF, trimming lines and dropping empty
// ones.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
