package stages

import (
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// RewriteHeaders collapses the label rows under the header anchor. For
// each column the values (v1, v2, v3) of rows anchor+1..anchor+3 become:
//
//	v1 == v2 == v3          -> ("", v2, "")
//	v1 != v2, v2 == v3      -> (v1, v2, "")
//	otherwise               -> (v1, v2+" "+v3, "")
//
// Columns past the end-boundary anchor are left alone.
func RewriteHeaders(g *models.Grid, anchors config.AnchorsConfig) (*Result, error) {
	if err := structural(StageHeaders, g); err != nil {
		return nil, err
	}
	header, err := headerAnchor(StageHeaders, g, anchors)
	if err != nil {
		return nil, err
	}

	res := &Result{Grid: g.Clone()}
	res.report(header.Diagnostics(StageHeaders)...)

	base := header.At(0, 0)
	lastCol := g.LastDataColumn(base.Row(), base.Down(3).Row())
	if b := boundaryColumn(g, anchors, header.Anchor); b > 1 {
		lastCol = b - 1
	}

	for col := 1; col <= lastCol; col++ {
		refs := [3]models.AnchorRef{
			base.Down(1).InColumn(col),
			base.Down(2).InColumn(col),
			base.Down(3).InColumn(col),
		}
		var in [3]string
		for i, ref := range refs {
			in[i] = ref.Text(g)
		}
		out := RewriteTriple(in[0], in[1], in[2])
		for i, ref := range refs {
			if out[i] == in[i] {
				continue
			}
			var v interface{}
			if out[i] != "" {
				v = out[i]
			}
			res.Grid.Set(ref.Row(), ref.Col(), v)
		}
	}
	return res, nil
}

// RewriteTriple applies the three-case label rule to one column. Values
// are compared after trimming; empty equals empty.
func RewriteTriple(v1, v2, v3 string) [3]string {
	v1, v2, v3 = strings.TrimSpace(v1), strings.TrimSpace(v2), strings.TrimSpace(v3)
	switch {
	case v1 == v2 && v2 == v3:
		return [3]string{"", v2, ""}
	case v1 != v2 && v2 == v3:
		return [3]string{v1, v2, ""}
	default:
		return [3]string{v1, joinNonEmpty(" ", v2, v3), ""}
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
