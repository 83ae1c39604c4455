// Package main provides the CLI entry point for tssconv.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/ukaji3/tssconv-go/pkg/tssconv"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"golang.org/x/sync/errgroup"
)

// Set via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const appName = "tssconv"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Convert supplier technical specification sheets",
		Long: `tssconv converts supplier technical specification sheets (xlsx)
into the canonical 17-column compliance schema.

The conversion runs eight steps: unmerge cells, process headers,
create the template, fill articles, transform data, process SD data,
validate finished products and process the final document.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(logLevel))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(convertCmd(), schemaCmd(), stepsCmd(), configCmd(), versionCmd())
	return cmd
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

type convertFlags struct {
	output          string
	configPath      string
	sheet           string
	steps           string
	intermediateDir string
	reportPath      string
	workers         int
	maxSizeMB       int64
}

func convertCmd() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [inputs...]",
		Short: "Convert one or more workbooks",
		Long: `Convert one or more workbooks. Inputs may be glob patterns
such as "data/input/**/*.xlsx".

With a single input, -o names the output file. With several inputs, or
when -o is an existing directory, each result is written there as
<base>-converted.xlsx. Without -o the result is written next to the input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file or directory")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Sheet to convert (default: active sheet)")
	cmd.Flags().StringVar(&f.steps, "steps", "all", `Steps to run, e.g. "1-4" or "1,2,3"`)
	cmd.Flags().StringVar(&f.intermediateDir, "intermediate-dir", "", "Directory for per-step workbooks")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "Write a JSON run report (file, or directory for several inputs)")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "Number of files converted concurrently")
	cmd.Flags().Int64Var(&f.maxSizeMB, "max-size", tssconv.MaxInputBytes>>20, "Input size limit in MB (0 disables)")

	return cmd
}

func runConvert(ctx context.Context, args []string, f convertFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	steps, err := tssconv.ParseSteps(f.steps)
	if err != nil {
		return err
	}
	if err := tssconv.ValidateStepOrder(steps); err != nil {
		return err
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files match %s", strings.Join(args, " "))
	}

	limit := f.maxSizeMB << 20
	if f.maxSizeMB <= 0 {
		limit = -1
	}
	multi := len(inputs) > 1
	var (
		mu     sync.Mutex
		failed []string
	)
	g, ctx := errgroup.WithContext(ctx)
	if f.workers > 0 {
		g.SetLimit(f.workers)
	}
	for _, in := range inputs {
		g.Go(func() error {
			opts := tssconv.Options{
				Sheet:           f.sheet,
				Steps:           steps,
				Config:          cfg,
				Logger:          slog.Default(),
				IntermediateDir: f.intermediateDir,
				MaxInputBytes:   limit,
			}
			if err := convertOne(ctx, in, opts, f, multi); err != nil {
				slog.Error("Conversion failed", slog.String("input", in), slog.String("error", err.Error()))
				mu.Lock()
				failed = append(failed, in)
				mu.Unlock()
			}
			// one bad file does not stop the batch
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d conversions failed", len(failed), len(inputs))
	}
	return nil
}

// convertOne validates, converts and saves one input. Convert runs the
// pre-flight checks, so a bad input fails only its own conversion.
func convertOne(ctx context.Context, input string, opts tssconv.Options, f convertFlags, multi bool) (err error) {
	var res *tssconv.Result
	res, err = tssconv.Convert(ctx, input, opts)
	if res != nil && res.Report != nil && f.reportPath != "" {
		defer func() {
			if werr := writeReport(res.Report, input, f.reportPath, multi); werr != nil && err == nil {
				err = werr
			}
		}()
	}
	if err != nil {
		return err
	}

	out, err := outputPath(input, f.output, multi)
	if err != nil {
		return err
	}
	if err := tssconv.SaveResult(res, out); err != nil {
		return err
	}
	slog.Info("Converted",
		slog.String("input", input),
		slog.String("output", out),
		slog.Int("rows", res.Final().Rows),
		slog.Int("diagnostics", res.Report.DiagnosticCount()))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFromFile(path)
}

// expandInputs resolves glob patterns and drops duplicates, keeping order.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func outputPath(input, output string, multi bool) (string, error) {
	name := baseName(input) + "-converted.xlsx"
	if output == "" {
		return filepath.Join(filepath.Dir(input), name), nil
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name), nil
	}
	if multi || !strings.EqualFold(filepath.Ext(output), ".xlsx") {
		if err := os.MkdirAll(output, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		return filepath.Join(output, name), nil
	}
	return output, nil
}

func writeReport(r *tssconv.Report, input, report string, multi bool) error {
	path := report
	if multi {
		if err := os.MkdirAll(report, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		path = filepath.Join(report, baseName(input)+"-report.json")
	}
	return r.WriteFile(path)
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func schemaCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the canonical output columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Schema %s (header row %d)\n", cfg.Schema.Version, cfg.Schema.HeaderRow)
			for i, c := range cfg.Schema.Columns {
				fmt.Fprintf(w, "%s\t%s\t%s\n", models.ColumnLetter(i+1), c.Name, strings.Join(c.Aliases, ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	return cmd
}

func stepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the conversion steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range tssconv.Steps {
				deps := make([]string, len(s.DependsOn))
				for i, d := range s.DependsOn {
					deps[i] = fmt.Sprint(d)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t[%s]\n", s.Number, s.Name, s.DisplayName, strings.Join(deps, ","))
			}
			return w.Flush()
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "tssconv.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
