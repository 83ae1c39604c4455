package tssconv

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// supplierGrid builds a source sheet with two articles above a header at
// row 16 and n data rows from row 20.
func supplierGrid(n int) *models.Grid {
	g := models.NewGrid(19+n, 11)
	g.Set(2, 2, "Article Number")
	g.Set(2, 3, "Article name")
	g.Set(3, 2, "1001")
	g.Set(3, 3, "Cup")
	g.Set(4, 2, "1002")
	g.Set(4, 3, "Plate")

	g.Set(16, 1, "General Type/Sub-Type in Connect")
	g.Set(16, 2, "Component Identity")
	g.Set(16, 5, "Producer")
	g.Set(16, 6, "Material Name")
	g.Set(16, 7, "SD")
	g.Set(16, 8, "Applies to article")
	g.Set(16, 9, "IOS-PRG-0272")
	g.Set(16, 10, "EN71-3")
	g.Set(16, 11, "Oldest TR date")
	g.Set(17, 9, "Chemical")
	g.Set(17, 10, "Migration")
	g.Set(18, 9, "Lead")
	g.Set(18, 10, "Heavy metals")
	for i := 0; i < n; i++ {
		r := 20 + i
		g.Set(r, 1, "Plastic")
		g.Set(r, 2, fmt.Sprintf("Part %d", i+1))
		g.Set(r, 5, fmt.Sprintf("Producer %d", i+1))
		g.Set(r, 6, fmt.Sprintf("Mat %d", i+1))
		g.Set(r, 8, "Cup")
	}
	return g
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)
	return p
}

func TestPipelineRun(t *testing.T) {
	p := newTestPipeline(t)
	original := supplierGrid(5)
	require.NoError(t, original.AddMerge(models.MergedRange{Row: 16, Col: 1, RowSpan: 3, ColSpan: 1}))

	st, err := p.Run(context.Background(), original, AllSteps())
	require.NoError(t, err)

	require.Len(t, st.Results, len(Steps))
	for i, r := range st.Results {
		assert.Equal(t, i+1, r.Step.Number)
		assert.Same(t, r.Grid, st.Grid(i+1))
	}

	require.Len(t, st.Articles, 2)
	assert.Equal(t, "Cup", st.Articles[0].Name)
	assert.Equal(t, models.SchemaColumnCount+1, st.Articles[0].Column)
	assert.Equal(t, models.SchemaColumnCount+2, st.Articles[1].Column)
	require.NotNil(t, st.Mapping)

	out := st.Final()
	require.NotNil(t, out)
	headerRow := p.Config().Schema.HeaderRow
	assert.Equal(t, models.SchemaColumnCount+2, out.Cols)
	assert.Equal(t, 5, out.Rows-headerRow)
	assert.Equal(t, "Cup", out.Text(1, models.SchemaColumnCount+1))

	// the original keeps its merge and its covered cells stay empty
	assert.Len(t, original.Merges, 1)
	assert.Equal(t, "", original.Text(17, 1))
}

func TestPipelineRunSubset(t *testing.T) {
	p := newTestPipeline(t)

	st, err := p.Run(context.Background(), supplierGrid(3), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, st.Results, 3)
	assert.Nil(t, st.Grid(4))

	template := st.Final()
	assert.Equal(t, models.SchemaColumnCount, template.Cols)
	assert.Equal(t, p.Config().Schema.HeaderRow, template.Rows)
}

func TestPipelineRunRejectsBadSelection(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		name  string
		steps []int
		want  error
	}{
		{"unknown", []int{1, 9}, ErrUnknownStep},
		{"missing dependency", []int{1, 3}, ErrMissingDependency},
		{"empty", nil, ErrUnknownStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := p.Run(context.Background(), supplierGrid(1), tt.steps)
			assert.Nil(t, st)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			var ce *ConversionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "validate", ce.Step)
		})
	}
}

func TestPipelineRunCanceled(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := p.Run(ctx, supplierGrid(1), AllSteps())
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, st)
	assert.Empty(t, st.Results)
}

func TestRunStepMissingDependency(t *testing.T) {
	p := newTestPipeline(t)
	st := NewState(supplierGrid(1))

	_, err := p.RunStep(2, st)
	assert.True(t, errors.Is(err, ErrMissingDependency))
	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepProcessHeaders, ce.Step)

	_, err = p.RunStep(1, NewState(nil))
	assert.True(t, errors.Is(err, ErrMissingDependency))

	_, err = p.RunStep(0, st)
	assert.True(t, errors.Is(err, ErrUnknownStep))
}

func TestRunStepOneAtATime(t *testing.T) {
	p := newTestPipeline(t)
	st := NewState(supplierGrid(2))

	for _, n := range []int{1, 2} {
		res, err := p.RunStep(n, st)
		require.NoError(t, err)
		assert.Equal(t, n, res.Step.Number)
	}
	assert.Equal(t, "General Type/Sub-Type in Connect", st.Grid(1).Text(16, 1))
	assert.NotSame(t, st.Original, st.Grid(1))
	assert.NotSame(t, st.Grid(1), st.Grid(2))
}

func TestPipelineStepFailure(t *testing.T) {
	p := newTestPipeline(t)
	// no header anchor: header processing cannot find its rows
	g := models.NewGrid(3, 3)
	g.Set(1, 1, "nothing here")

	st, err := p.Run(context.Background(), g, []int{1, 2})
	require.Error(t, err)
	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StepProcessHeaders, ce.Step)
	require.NotNil(t, st)
	assert.Len(t, st.Results, 1)
}

func TestNewPipelineRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Schema.Columns = cfg.Schema.Columns[:3]

	_, err := NewPipeline(cfg, nil)
	assert.Error(t, err)
}
