package tssconv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/parser"
)

// Result is the outcome of Convert.
type Result struct {
	State  *State
	Report *Report
	// Intermediates lists the step files written to Options.IntermediateDir.
	Intermediates []string
}

// Final returns the converted grid, nil when no step ran.
func (r *Result) Final() *models.Grid {
	if r == nil || r.State == nil {
		return nil
	}
	return r.State.Final()
}

// Convert loads the workbook at path and runs the selected steps on it.
// On a step failure the partial Result is returned with the error.
func Convert(ctx context.Context, path string, opts Options) (*Result, error) {
	cfg := opts.config()
	logger := opts.logger().With(slog.String("input", filepath.Base(path)))

	if err := ValidateInput(path, opts.sizeLimit()); err != nil {
		return nil, NewConversionError(path, "validate", err)
	}

	original, err := parser.LoadFile(path, opts.Sheet)
	if err != nil {
		if !errors.Is(err, ErrNoSheet) {
			err = fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return nil, NewConversionError(path, "load", err)
	}
	logger.Info("Loaded sheet",
		slog.String("sheet", original.Name),
		slog.Int("rows", original.Rows),
		slog.Int("cols", original.Cols),
		slog.Int("merges", len(original.Merges)))

	p, err := NewPipeline(cfg, logger)
	if err != nil {
		return nil, NewConversionError(path, "validate", err)
	}

	report := NewReport(path, original.Name, cfg.Schema)
	st, err := p.Run(ctx, original, opts.SelectedSteps())
	report.Record(st, err)
	res := &Result{State: st, Report: report}
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) && ce.Path == "" {
			ce.Path = path
		}
		return res, err
	}

	if opts.ShouldWriteIntermediates() {
		files, err := WriteIntermediates(st, opts.IntermediateDir, path)
		if err != nil {
			return res, NewConversionError(path, "save", err)
		}
		res.Intermediates = files
	}
	return res, nil
}

// ValidateInput checks that path is an existing xlsx/xlsm file no larger than
// maxBytes. A maxBytes of zero or less disables the size check.
func ValidateInput(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
	default:
		return fmt.Errorf("%w: unsupported extension %q", ErrInvalidFormat, filepath.Ext(path))
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, info.Size(), maxBytes)
	}
	return nil
}

// WriteIntermediates saves every step grid in st as <base>-Step<N>.xlsx
// under dir and returns the written paths.
func WriteIntermediates(st *State, dir, input string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	var files []string
	for _, r := range st.Results {
		out := filepath.Join(dir, fmt.Sprintf("%s-Step%d.xlsx", base, r.Step.Number))
		if err := parser.SaveFile(r.Grid, out, ""); err != nil {
			return files, fmt.Errorf("step %d: %w", r.Step.Number, err)
		}
		files = append(files, out)
	}
	return files, nil
}

// SaveResult writes the converted grid to path.
func SaveResult(res *Result, path string) error {
	g := res.Final()
	if g == nil {
		return errors.New("no converted grid to save")
	}
	if err := parser.SaveFile(g, path, ""); err != nil {
		return NewConversionError(path, "save", err)
	}
	if res.Report != nil {
		res.Report.Output = path
	}
	return nil
}
