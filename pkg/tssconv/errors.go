package tssconv

import (
	"errors"
	"fmt"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/parser"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a readable xlsx/xlsm workbook.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrFileTooLarge indicates the input exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrNoSheet indicates the requested sheet does not exist.
var ErrNoSheet = parser.ErrSheetNotFound

// ErrUnknownStep indicates a step number outside the pipeline.
var ErrUnknownStep = errors.New("unknown step")

// ErrMissingDependency indicates a step ran before the steps it reads from.
var ErrMissingDependency = errors.New("missing step dependency")

// ConversionError represents an error during conversion.
type ConversionError struct {
	Path string
	Step string // "load", "validate", a step name, or "save"
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("conversion error (%s): %v", e.Step, e.Err)
	}
	return fmt.Sprintf("conversion error in %q (%s): %v", e.Path, e.Step, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError creates a new ConversionError.
func NewConversionError(path, step string, err error) *ConversionError {
	return &ConversionError{
		Path: path,
		Step: step,
		Err:  err,
	}
}
