package tssconv

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Step names.
const (
	StepUnmergeCells     = "unmerge_cells"
	StepProcessHeaders   = "process_headers"
	StepCreateTemplate   = "create_template"
	StepFillArticles     = "fill_articles"
	StepTransformData    = "transform_data"
	StepProcessSDData    = "process_sd_data"
	StepValidateProducts = "validate_products"
	StepProcessDocument  = "process_document"
)

// StepInfo describes one pipeline step.
type StepInfo struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Description   string `json:"description"`
	NeedsOriginal bool   `json:"needs_original"`
	DependsOn     []int  `json:"depends_on,omitempty"`
}

// Steps lists the pipeline steps in execution order.
var Steps = []StepInfo{
	{
		Number:        1,
		Name:          StepUnmergeCells,
		DisplayName:   "Unmerging cells",
		Description:   "Resolve merged ranges into a flat grid, copying the top-left value into every covered cell",
		NeedsOriginal: true,
	},
	{
		Number:      2,
		Name:        StepProcessHeaders,
		DisplayName: "Processing headers",
		Description: "Rewrite the three label rows under the header anchor with the 3-case rule",
		DependsOn:   []int{1},
	},
	{
		Number:      3,
		Name:        StepCreateTemplate,
		DisplayName: "Creating template",
		Description: "Build the 17-column canonical template with styled headers",
		DependsOn:   []int{2},
	},
	{
		Number:        4,
		Name:          StepFillArticles,
		DisplayName:   "Filling article information",
		Description:   "Extract article names and numbers above the header and append one column per article",
		NeedsOriginal: true,
		DependsOn:     []int{3},
	},
	{
		Number:      5,
		Name:        StepTransformData,
		DisplayName: "Transforming data",
		Description: "Map source columns onto the template and expand requirement and SD columns into rows",
		DependsOn:   []int{2, 4},
	},
	{
		Number:        6,
		Name:          StepProcessSDData,
		DisplayName:   "Processing SD data",
		Description:   "Map the key column into the reference column, split lines, deduplicate values and rows",
		NeedsOriginal: true,
		DependsOn:     []int{5},
	},
	{
		Number:      7,
		Name:        StepValidateProducts,
		DisplayName: "Validating finished products",
		Description: "Normalize finished-product rows and mark the articles each row applies to",
		DependsOn:   []int{4, 6},
	},
	{
		Number:      8,
		Name:        StepProcessDocument,
		DisplayName: "Processing final document",
		Description: "Fill document type and requirement codes from the additional information column",
		DependsOn:   []int{7},
	},
}

// LookupStep returns the step with the given number.
func LookupStep(n int) (StepInfo, bool) {
	if n < 1 || n > len(Steps) {
		return StepInfo{}, false
	}
	return Steps[n-1], true
}

// AllSteps returns every step number in order.
func AllSteps() []int {
	out := make([]int, len(Steps))
	for i, s := range Steps {
		out[i] = s.Number
	}
	return out
}

// ValidateStepOrder checks that every step exists, appears once, and has
// its dependencies selected too.
func ValidateStepOrder(steps []int) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps selected", ErrUnknownStep)
	}
	selected := make(map[int]bool, len(steps))
	for _, n := range steps {
		if _, ok := LookupStep(n); !ok {
			return fmt.Errorf("%w: %d", ErrUnknownStep, n)
		}
		if selected[n] {
			return fmt.Errorf("step %d selected twice", n)
		}
		selected[n] = true
	}
	var missing []string
	for _, n := range steps {
		info, _ := LookupStep(n)
		for _, dep := range info.DependsOn {
			if !selected[dep] {
				missing = append(missing, fmt.Sprintf("step %d requires step %d", n, dep))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingDependency, strings.Join(missing, "; "))
	}
	return nil
}

// ParseSteps parses a step selection such as "1-4", "1,2,3" or "all".
// The result is sorted.
func ParseSteps(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllSteps(), nil
	}
	seen := make(map[int]bool)
	var out []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid step range %q", part)
			}
			to, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || to < from {
				return nil, fmt.Errorf("invalid step range %q", part)
			}
			for n := from; n <= to; n++ {
				add(n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid step %q", part)
		}
		add(n)
	}
	sort.Ints(out)
	return out, nil
}
