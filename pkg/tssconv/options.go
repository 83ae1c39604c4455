// Package tssconv converts supplier technical specification sheets into the
// canonical 17-column compliance schema.
package tssconv

import (
	"log/slog"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
)

// MaxInputBytes is the default input size limit.
const MaxInputBytes int64 = 200 << 20

// Options configures conversion behavior.
type Options struct {
	// Sheet is the sheet to convert; empty selects the active sheet.
	Sheet string
	// Steps selects the steps to run. If nil, every step runs.
	Steps []int
	// Config is the pipeline configuration. If nil, config.DefaultConfig is used.
	Config *config.Config
	// Logger receives step progress and diagnostics. If nil, slog.Default is used.
	Logger *slog.Logger
	// IntermediateDir receives every step grid as <base>-Step<N>.xlsx when set.
	IntermediateDir string
	// MaxInputBytes bounds the input size. Zero means MaxInputBytes; negative disables the check.
	MaxInputBytes int64
}

// DefaultOptions returns default conversion options.
func DefaultOptions() Options {
	return Options{
		Config: config.DefaultConfig(),
	}
}

// SelectedSteps returns the steps to run.
func (o Options) SelectedSteps() []int {
	if len(o.Steps) == 0 {
		return AllSteps()
	}
	return o.Steps
}

// ShouldWriteIntermediates returns whether step grids are written to disk.
func (o Options) ShouldWriteIntermediates() bool {
	return o.IntermediateDir != ""
}

func (o Options) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return config.DefaultConfig()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) sizeLimit() int64 {
	if o.MaxInputBytes == 0 {
		return MaxInputBytes
	}
	return o.MaxInputBytes
}
