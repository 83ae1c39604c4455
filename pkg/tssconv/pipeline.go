package tssconv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/stages"
)

// State carries the original grid and every step output produced so far.
// Step outputs are never modified once stored.
type State struct {
	Original *models.Grid
	Grids    map[int]*models.Grid
	// Articles are the placed article records, set by step 4.
	Articles []models.ArticleRecord
	// Mapping is the field mapping, set by step 5.
	Mapping *stages.FieldMapping
	Results []StepResult
}

// NewState starts a run on the original grid.
func NewState(original *models.Grid) *State {
	return &State{Original: original, Grids: make(map[int]*models.Grid)}
}

// Grid returns the output of step n, nil when it has not run.
func (s *State) Grid(n int) *models.Grid {
	return s.Grids[n]
}

// Final returns the output of the last step that ran.
func (s *State) Final() *models.Grid {
	if len(s.Results) == 0 {
		return nil
	}
	return s.Results[len(s.Results)-1].Grid
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step        StepInfo
	Grid        *models.Grid
	Diagnostics []*stages.Error
	Duration    time.Duration
}

// Pipeline runs the conversion steps with one configuration.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewPipeline validates cfg and returns a pipeline. A nil cfg selects the
// defaults; a nil logger selects slog.Default.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Run executes steps in order on the original grid. The context is checked
// between steps; a step in progress always completes.
func (p *Pipeline) Run(ctx context.Context, original *models.Grid, steps []int) (*State, error) {
	if err := ValidateStepOrder(steps); err != nil {
		return nil, NewConversionError("", "validate", err)
	}
	st := NewState(original)
	for _, n := range steps {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if _, err := p.RunStep(n, st); err != nil {
			return st, err
		}
	}
	return st, nil
}

// RunStep executes step n against st and stores its output. The step's
// dependencies must already be in st.
func (p *Pipeline) RunStep(n int, st *State) (*StepResult, error) {
	info, ok := LookupStep(n)
	if !ok {
		return nil, NewConversionError("", "validate", fmt.Errorf("%w: %d", ErrUnknownStep, n))
	}
	if err := st.ready(info); err != nil {
		return nil, NewConversionError("", info.Name, err)
	}

	p.logger.Debug("Step started", slog.Int("step", n), slog.String("name", info.Name))
	start := time.Now()
	grid, diags, err := p.exec(n, st)
	if err != nil {
		p.logger.Error("Step failed", slog.Int("step", n), slog.String("name", info.Name), slog.String("error", err.Error()))
		return nil, NewConversionError("", info.Name, err)
	}

	res := StepResult{Step: info, Grid: grid, Diagnostics: diags, Duration: time.Since(start)}
	st.Grids[n] = grid
	st.Results = append(st.Results, res)

	for _, d := range diags {
		p.logger.Warn("Step diagnostic",
			slog.Int("step", n),
			slog.String("kind", d.Kind.String()),
			slog.Int("row", d.Row),
			slog.Int("col", d.Col),
			slog.String("message", d.Message))
	}
	p.logger.Info(info.DisplayName,
		slog.Int("step", n),
		slog.Int("rows", grid.Rows),
		slog.Int("cols", grid.Cols),
		slog.Int("diagnostics", len(diags)),
		slog.Duration("duration", res.Duration))
	return &res, nil
}

func (s *State) ready(info StepInfo) error {
	if info.NeedsOriginal && s.Original == nil {
		return fmt.Errorf("%w: step %d needs the original grid", ErrMissingDependency, info.Number)
	}
	for _, dep := range info.DependsOn {
		if s.Grids[dep] == nil {
			return fmt.Errorf("%w: step %d requires step %d", ErrMissingDependency, info.Number, dep)
		}
	}
	return nil
}

func (p *Pipeline) exec(n int, st *State) (*models.Grid, []*stages.Error, error) {
	cfg := p.cfg
	switch n {
	case 1:
		g, err := stages.NormalizeCells(st.Original)
		return g, nil, err

	case 2:
		r, err := stages.RewriteHeaders(st.Grids[1], cfg.Anchors)
		if err != nil {
			return nil, nil, err
		}
		return r.Grid, r.Diagnostics, nil

	case 3:
		g, err := stages.ProjectSchema(st.Grids[2], cfg.Schema)
		return g, nil, err

	case 4:
		found, err := stages.ExtractArticles(st.Original, cfg.Anchors)
		if err != nil {
			return nil, nil, err
		}
		r, placed, err := stages.PlaceArticles(st.Grids[3], found.Records, cfg.Schema, cfg.Articles)
		if err != nil {
			return nil, nil, err
		}
		st.Articles = placed
		return r.Grid, append(found.Diagnostics, r.Diagnostics...), nil

	case 5:
		fm, err := stages.MapFields(st.Grids[2], st.Grids[4], cfg)
		if err != nil {
			return nil, nil, err
		}
		st.Mapping = fm
		if !cfg.Expansion.Enabled {
			return fm.Grid, fm.Diagnostics, nil
		}
		r, err := stages.ExpandRequirements(fm, st.Grids[2], cfg)
		if err != nil {
			return nil, nil, err
		}
		return r.Grid, append(append([]*stages.Error(nil), fm.Diagnostics...), r.Diagnostics...), nil

	case 6:
		r, err := stages.Reconcile(st.Grids[5], st.Original, cfg.Reconcile, cfg.Schema)
		if err != nil {
			return nil, nil, err
		}
		return r.Grid, r.Diagnostics, nil

	case 7:
		r, err := stages.MatchEntities(st.Grids[6], st.Articles, cfg.Entities, cfg.Schema)
		if err != nil {
			return nil, nil, err
		}
		return r.Grid, r.Diagnostics, nil

	case 8:
		r, err := stages.ClassifyRequirements(st.Grids[7], cfg.Classifier, cfg.Schema)
		if err != nil {
			return nil, nil, err
		}
		return r.Grid, r.Diagnostics, nil
	}
	return nil, nil, fmt.Errorf("%w: %d", ErrUnknownStep, n)
}
