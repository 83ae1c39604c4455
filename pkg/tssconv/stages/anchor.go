package stages

import (
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// AnchorMatch is the winning cell of an anchor search.
type AnchorMatch struct {
	models.Anchor
	// Others are later cells that also match, whatever their tier.
	Others []models.Anchor
}

// Diagnostics reports the other matching cells as AmbiguousMatch conditions.
func (m *AnchorMatch) Diagnostics(stage string) []*Error {
	var out []*Error
	for _, o := range m.Others {
		e := newError(stage, KindAmbiguousMatch, "%q also matches %q; kept %s", o.Text, o.Label, m.Cell())
		out = append(out, e.at(o.Row, o.Col))
	}
	return out
}

// FindAnchor scans the window row-major and returns the first cell matching
// spec at or above its minimum tier: earliest row, then earliest column.
// Tier and confidence are reported on the anchor but do not rank cells. A
// miss is reported as a NotFound *Error carrying the window and labels.
func FindAnchor(g *models.Grid, spec config.AnchorSpec, w Window) (*AnchorMatch, error) {
	if g == nil {
		return nil, newError(StageAnchor, KindStructuralViolation, "nil grid")
	}

	var best *AnchorMatch
	found := FindAnchors(g, spec, w)
	for i, a := range found {
		switch {
		case best == nil:
			best = &AnchorMatch{Anchor: a}
		case !continues(found[:i], a):
			best.Others = append(best.Others, a)
		}
	}
	if best == nil {
		return nil, notFound(StageAnchor, spec, w)
	}
	return best, nil
}

// FindAnchors returns every cell in the window matching spec, in document
// order.
func FindAnchors(g *models.Grid, spec config.AnchorSpec, w Window) []models.Anchor {
	if g == nil || len(spec.Labels) == 0 {
		return nil
	}
	m := match.NewMatcher(minTier(spec.MinTier))
	w = w.clamp(g)

	var out []models.Anchor
	for r := w.FirstRow; r <= w.LastRow; r++ {
		for c := w.FirstCol; c <= w.LastCol; c++ {
			text := g.TrimmedText(r, c)
			if text == "" {
				continue
			}
			res := m.Match(text, spec.Labels)
			if !res.Matched() {
				continue
			}
			out = append(out, models.Anchor{
				Row:        r,
				Col:        c,
				Text:       text,
				Label:      res.Label,
				Tier:       res.Tier.String(),
				Confidence: res.Confidence,
			})
		}
	}
	return out
}

// continues reports whether a repeats the text of the cell directly above
// or to its left, as a flattened merged label does.
func continues(prev []models.Anchor, a models.Anchor) bool {
	for _, p := range prev {
		if p.Text != a.Text {
			continue
		}
		if (p.Col == a.Col && p.Row == a.Row-1) || (p.Row == a.Row && p.Col == a.Col-1) {
			return true
		}
	}
	return false
}

// minTier defaults an unset tier to normalized equality.
func minTier(t match.Tier) match.Tier {
	if t == match.TierNone {
		return match.TierNormalized
	}
	return t
}

func notFound(stage string, spec config.AnchorSpec, w Window) *Error {
	name := spec.Name
	if name == "" {
		name = "anchor"
	}
	e := newError(stage, KindNotFound, "%s not found", name)
	e.Labels = append([]string(nil), spec.Labels...)
	e.Window = &w
	return e
}

// headerAnchor locates the primary header anchor within the configured
// search rows. Its absence is fatal for every stage that needs it.
func headerAnchor(stage string, g *models.Grid, anchors config.AnchorsConfig) (*AnchorMatch, error) {
	w := Rows(1, anchors.HeaderSearchRows)
	a, err := FindAnchor(g, anchors.Header, w)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Stage = stage
		}
		return nil, err
	}
	return a, nil
}

// boundaryColumn returns the column of the end-boundary anchor on the
// header row, or 0 when the document has none.
func boundaryColumn(g *models.Grid, anchors config.AnchorsConfig, header models.Anchor) int {
	if len(anchors.EndBoundary.Labels) == 0 {
		return 0
	}
	row := header.At(0, 0).Row()
	a, err := FindAnchor(g, anchors.EndBoundary, Rows(row, row))
	if err != nil {
		return 0
	}
	return a.Col
}
