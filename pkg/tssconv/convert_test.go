package tssconv

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/parser"
	"github.com/xuri/excelize/v2"
)

// writeSupplierFile saves supplierGrid(n) as an xlsx workbook.
func writeSupplierFile(t *testing.T, n int) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	g := supplierGrid(n)
	for r := 1; r <= g.Rows; r++ {
		for c := 1; c <= g.Cols; c++ {
			if v := g.Cell(r, c).Value; v != nil {
				require.NoError(t, f.SetCellValue("Sheet1", models.CellName(c, r), v))
			}
		}
	}
	require.NoError(t, f.MergeCell("Sheet1", "A16", "A18"))

	path := filepath.Join(t.TempDir(), "supplier.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestConvert(t *testing.T) {
	path := writeSupplierFile(t, 4)
	opts := DefaultOptions()
	opts.IntermediateDir = filepath.Join(t.TempDir(), "steps")

	res, err := Convert(context.Background(), path, opts)
	require.NoError(t, err)

	out := res.Final()
	require.NotNil(t, out)
	assert.Equal(t, models.SchemaColumnCount+2, out.Cols)
	assert.Equal(t, 4, out.Rows-opts.Config.Schema.HeaderRow)

	require.Len(t, res.Intermediates, len(Steps))
	assert.Equal(t, filepath.Join(opts.IntermediateDir, "supplier-Step1.xlsx"), res.Intermediates[0])
	for _, p := range res.Intermediates {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	require.NotNil(t, res.Report)
	assert.Equal(t, "Sheet1", res.Report.Sheet)
	assert.Len(t, res.Report.Steps, len(Steps))
	assert.Len(t, res.Report.Articles, 2)
	assert.Empty(t, res.Report.Error)

	dest := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, SaveResult(res, dest))
	assert.Equal(t, dest, res.Report.Output)

	back, err := parser.LoadFile(dest, "")
	require.NoError(t, err)
	assert.Equal(t, out.Rows, back.Rows)
	assert.Equal(t, "Cup", back.Text(1, models.SchemaColumnCount+1))
}

func TestConvertSelectedSteps(t *testing.T) {
	path := writeSupplierFile(t, 2)
	opts := DefaultOptions()
	opts.Steps = []int{1, 2}

	res, err := Convert(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Len(t, res.State.Results, 2)
	assert.Empty(t, res.Intermediates)
	// header processing keeps the source layout
	assert.Equal(t, 11, res.Final().Cols)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	notXLSX := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(notXLSX, []byte("a,b"), 0o644))
	corrupt := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip"), 0o644))
	good := writeSupplierFile(t, 1)

	tests := []struct {
		name string
		path string
		opts func(*Options)
		want error
		step string
	}{
		{"missing", filepath.Join(dir, "nope.xlsx"), nil, ErrFileNotFound, "validate"},
		{"extension", notXLSX, nil, ErrInvalidFormat, "validate"},
		{"corrupt", corrupt, nil, ErrInvalidFormat, "load"},
		{"too large", good, func(o *Options) { o.MaxInputBytes = 10 }, ErrFileTooLarge, "validate"},
		{"sheet", good, func(o *Options) { o.Sheet = "Missing" }, ErrNoSheet, "load"},
		{"steps", good, func(o *Options) { o.Steps = []int{3} }, ErrMissingDependency, "validate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := Convert(context.Background(), tt.path, opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var ce *ConversionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.path, ce.Path)
			assert.Equal(t, tt.step, ce.Step)
		})
	}
}

func TestValidateInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Book.XLSM")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	assert.NoError(t, ValidateInput(path, 0))
	assert.NoError(t, ValidateInput(path, 100))
	assert.True(t, errors.Is(ValidateInput(path, 99), ErrFileTooLarge))
	assert.True(t, errors.Is(ValidateInput(dir, 0), ErrInvalidFormat))
}

func TestReportJSON(t *testing.T) {
	p := newTestPipeline(t)
	st, err := p.Run(context.Background(), supplierGrid(2), []int{1, 2, 3})
	require.NoError(t, err)

	r := NewReport("in.xlsx", "Sheet1", p.Config().Schema)
	r.Record(st, nil)
	require.Len(t, r.Steps, 3)
	assert.Equal(t, 0, r.Steps[0].DataRows)
	assert.Equal(t, 0, r.Steps[2].DataRows)
	assert.Equal(t, StepCreateTemplate, r.Steps[2].Name)
	assert.Equal(t, 0, r.DiagnosticCount())

	data, err := r.ToJSON(false)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.RunID, decoded["run_id"])
	assert.Equal(t, "Sheet1", decoded["sheet"])
	assert.NotContains(t, decoded, "error")

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteFile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"run_id\"")
}

func TestReportRecordsError(t *testing.T) {
	r := NewReport("in.xlsx", "Sheet1", models.Schema{Version: "1", HeaderRow: 10})
	r.Record(nil, errors.New("boom"))
	assert.Equal(t, "boom", r.Error)
	assert.Empty(t, r.Steps)
}
