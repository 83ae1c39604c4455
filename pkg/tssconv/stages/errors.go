package stages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// Stage names used in errors and diagnostics.
const (
	StageNormalize  = "normalize"
	StageAnchor     = "anchor"
	StageHeaders    = "headers"
	StageSchema     = "schema"
	StageArticles   = "articles"
	StageFieldMap   = "fieldmap"
	StageExpand     = "expand"
	StageReconcile  = "reconcile"
	StageEntities   = "entities"
	StageClassifier = "classify"
)

// Kind classifies a stage condition.
type Kind int

const (
	// KindNotFound means an expected anchor is absent.
	KindNotFound Kind = iota + 1
	// KindStructuralViolation means the input grid breaks a shape invariant.
	KindStructuralViolation
	// KindAmbiguousMatch means several candidates scored equally; the earliest won.
	KindAmbiguousMatch
	// KindDegradedReconciliation means a step proceeded with reduced context.
	KindDegradedReconciliation
)

// Sentinels matched by errors.Is against *Error values of the same kind.
var (
	ErrNotFound               = errors.New("not found")
	ErrStructuralViolation    = errors.New("structural violation")
	ErrAmbiguousMatch         = errors.New("ambiguous match")
	ErrDegradedReconciliation = errors.New("degraded reconciliation")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindStructuralViolation:
		return ErrStructuralViolation
	case KindAmbiguousMatch:
		return ErrAmbiguousMatch
	case KindDegradedReconciliation:
		return ErrDegradedReconciliation
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name in reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Window bounds an anchor search. Zero bounds are open.
type Window struct {
	FirstRow int `json:"first_row,omitempty"`
	LastRow  int `json:"last_row,omitempty"`
	FirstCol int `json:"first_col,omitempty"`
	LastCol  int `json:"last_col,omitempty"`
}

// Rows returns a window covering rows [first, last] of every column.
func Rows(first, last int) Window {
	return Window{FirstRow: first, LastRow: last}
}

// clamp resolves open bounds against the grid.
func (w Window) clamp(g *models.Grid) Window {
	if w.FirstRow < 1 {
		w.FirstRow = 1
	}
	if w.LastRow == 0 || w.LastRow > g.Rows {
		w.LastRow = g.Rows
	}
	if w.FirstCol < 1 {
		w.FirstCol = 1
	}
	if w.LastCol == 0 || w.LastCol > g.Cols {
		w.LastCol = g.Cols
	}
	return w
}

func (w Window) String() string {
	bound := func(v int) string {
		if v == 0 {
			return "*"
		}
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("rows %s-%s, cols %s-%s", bound(w.FirstRow), bound(w.LastRow), bound(w.FirstCol), bound(w.LastCol))
}

// Error is a condition detected by a stage. Fatal conditions are returned
// as errors; non-fatal ones are collected as diagnostics.
type Error struct {
	Stage   string   `json:"stage"`
	Kind    Kind     `json:"kind"`
	Row     int      `json:"row,omitempty"`
	Col     int      `json:"col,omitempty"`
	Labels  []string `json:"labels,omitempty"`
	Window  *Window  `json:"window,omitempty"`
	Message string   `json:"message"`
	Err     error    `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", e.Stage, e.Kind, e.Message)
	if e.Row > 0 && e.Col > 0 {
		fmt.Fprintf(&b, " at %s", models.CellName(e.Col, e.Row))
	} else if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if len(e.Labels) > 0 {
		fmt.Fprintf(&b, " (labels %q)", e.Labels)
	}
	if e.Window != nil {
		fmt.Fprintf(&b, " [%s]", e.Window)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(stage string, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) at(row, col int) *Error {
	e.Row, e.Col = row, col
	return e
}

// structural wraps a grid validation failure.
func structural(stage string, g *models.Grid) error {
	if g == nil {
		return newError(stage, KindStructuralViolation, "nil grid")
	}
	if err := g.Validate(); err != nil {
		e := newError(stage, KindStructuralViolation, "invalid input grid")
		e.Err = err
		return e
	}
	return nil
}
