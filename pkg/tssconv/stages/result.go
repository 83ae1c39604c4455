package stages

import "github.com/ukaji3/tssconv-go/pkg/tssconv/models"

// Result is the output of a grid-producing stage.
type Result struct {
	// Grid is freshly allocated and owned by the caller.
	Grid *models.Grid
	// Diagnostics are the non-fatal conditions met on the way.
	Diagnostics []*Error
}

func (r *Result) report(e ...*Error) {
	r.Diagnostics = append(r.Diagnostics, e...)
}
