package tssconv

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/stages"
)

// Report summarizes one conversion run.
type Report struct {
	RunID         string                 `json:"run_id"`
	Input         string                 `json:"input"`
	Output        string                 `json:"output,omitempty"`
	Sheet         string                 `json:"sheet"`
	SchemaVersion string                 `json:"schema_version"`
	StartedAt     time.Time              `json:"started_at"`
	DurationMS    int64                  `json:"duration_ms"`
	Articles      []models.ArticleRecord `json:"articles,omitempty"`
	Steps         []StepReport           `json:"steps"`
	Error         string                 `json:"error,omitempty"`

	headerRow int
}

// StepReport summarizes one step.
type StepReport struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	// DataRows counts rows below the schema header; zero before the template exists.
	DataRows    int             `json:"data_rows"`
	DurationMS  int64           `json:"duration_ms"`
	Diagnostics []*stages.Error `json:"diagnostics,omitempty"`
}

// NewReport starts a report for input.
func NewReport(input, sheet string, schema models.Schema) *Report {
	return &Report{
		RunID:         uuid.New().String(),
		Input:         input,
		Sheet:         sheet,
		SchemaVersion: schema.Version,
		StartedAt:     time.Now(),
		Steps:         []StepReport{},
		headerRow:     schema.HeaderRow,
	}
}

// Record fills the report from a finished run.
func (r *Report) Record(st *State, err error) {
	r.DurationMS = time.Since(r.StartedAt).Milliseconds()
	if err != nil {
		r.Error = err.Error()
	}
	if st == nil {
		return
	}
	r.Articles = st.Articles
	for _, res := range st.Results {
		sr := StepReport{
			Number:      res.Step.Number,
			Name:        res.Step.Name,
			Rows:        res.Grid.Rows,
			Cols:        res.Grid.Cols,
			DurationMS:  res.Duration.Milliseconds(),
			Diagnostics: res.Diagnostics,
		}
		if res.Step.Number >= 3 && res.Grid.Rows > r.headerRow {
			sr.DataRows = res.Grid.Rows - r.headerRow
		}
		r.Steps = append(r.Steps, sr)
	}
}

// DiagnosticCount returns the number of diagnostics across all steps.
func (r *Report) DiagnosticCount() int {
	n := 0
	for _, s := range r.Steps {
		n += len(s.Diagnostics)
	}
	return n
}

// ToJSON serializes the report.
func (r *Report) ToJSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := r.ToJSON(true)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
