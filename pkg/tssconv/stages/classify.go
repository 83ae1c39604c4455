package stages

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/config"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// Classifier splits compound requirement-source text into tokens and
// classifies each against an ordered category table.
type Classifier struct {
	separators string
	categories []category
}

type category struct {
	name     string
	keywords []string
	re       *regexp.Regexp
}

// NewClassifier compiles the category table.
func NewClassifier(cfg config.ClassifierConfig) (*Classifier, error) {
	c := &Classifier{separators: cfg.Separators}
	if c.separators == "" {
		c.separators = "&,;"
	}
	for _, cat := range cfg.Categories {
		cc := category{name: cat.Name, keywords: cat.Keywords}
		if cat.Pattern != "" {
			re, err := regexp.Compile("(?i)" + cat.Pattern)
			if err != nil {
				return nil, &Error{Stage: StageClassifier, Kind: KindStructuralViolation,
					Message: "bad pattern for category " + cat.Name, Err: err}
			}
			cc.re = re
		}
		c.categories = append(c.categories, cc)
	}
	return c, nil
}

// ClassifyText classifies text with a classifier built from cfg.
func ClassifyText(text string, cfg config.ClassifierConfig) ([]models.RequirementToken, error) {
	c, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return c.Classify(text), nil
}

// Classify returns one token per top-level segment, in order. Segments
// matching no category are kept with an empty category.
func (c *Classifier) Classify(text string) []models.RequirementToken {
	var out []models.RequirementToken
	for _, seg := range c.Split(text) {
		tok := seg
		for _, cat := range c.categories {
			if cat.re != nil {
				if code := cat.re.FindString(seg.RawText); code != "" {
					tok.Category, tok.Code = cat.name, canonicalCode(code)
					break
				}
			}
			if hasKeyword(seg.RawText, cat.keywords) {
				tok.Category = cat.name
				break
			}
		}
		out = append(out, tok)
	}
	return out
}

// Split cuts text on top-level separators. A separator inside (), [] or {}
// does not split. Segments are trimmed and empty ones dropped; each token
// records the separator that preceded it.
func (c *Classifier) Split(text string) []models.RequirementToken {
	var (
		out   []models.RequirementToken
		buf   strings.Builder
		depth int
		sep   string
	)
	flush := func(next string) {
		if raw := strings.TrimSpace(buf.String()); raw != "" {
			out = append(out, models.RequirementToken{RawText: raw, Separator: sep})
			sep = next
		} else if next != "" {
			sep = next
		}
		buf.Reset()
	}
	for _, r := range text {
		switch {
		case strings.ContainsRune("([{", r):
			depth++
		case strings.ContainsRune(")]}", r):
			if depth > 0 {
				depth--
			}
		case depth == 0 && strings.ContainsRune(c.separators, r):
			flush(string(r))
			continue
		}
		buf.WriteRune(r)
	}
	flush("")
	return out
}

// Codes extracts every categorized code from text, in text order and
// without duplicates. Within a segment earlier categories claim their
// matches first, so "IOS-MAT-0010" is not also read as a MAT code. When
// only is non-empty, codes of other categories are left out.
func (c *Classifier) Codes(text string, only []string) []string {
	allowed := make(map[string]bool, len(only))
	for _, name := range only {
		allowed[strings.ToUpper(name)] = true
	}

	type hit struct {
		pos  int
		code string
	}
	var codes []string
	seen := make(map[string]bool)
	for _, seg := range c.Split(text) {
		rest := []byte(seg.RawText)
		var hits []hit
		for _, cat := range c.categories {
			if cat.re == nil {
				continue
			}
			for _, loc := range cat.re.FindAllIndex(rest, -1) {
				if len(allowed) == 0 || allowed[strings.ToUpper(cat.name)] {
					hits = append(hits, hit{pos: loc[0], code: canonicalCode(string(rest[loc[0]:loc[1]]))})
				}
				for i := loc[0]; i < loc[1]; i++ {
					rest[i] = ' '
				}
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
		for _, h := range hits {
			if !seen[h.code] {
				seen[h.code] = true
				codes = append(codes, h.code)
			}
		}
	}
	return codes
}

// ClassifyRequirements fills the document type and requirement-source
// columns of every data row from the source column. Rows whose source text
// contains a removal literal are dropped first; the configured scratch
// columns are cleared last.
func ClassifyRequirements(g *models.Grid, cfg config.ClassifierConfig, schema models.Schema) (*Result, error) {
	if err := structural(StageClassifier, g); err != nil {
		return nil, err
	}
	c, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	var numbered *regexp.Regexp
	if cfg.NumberedPrefix != "" {
		if numbered, err = regexp.Compile(cfg.NumberedPrefix); err != nil {
			return nil, &Error{Stage: StageClassifier, Kind: KindStructuralViolation, Message: "bad numbered prefix", Err: err}
		}
	}
	cols := make(map[string]int)
	for name, ref := range map[string]string{
		"source":      cfg.SourceColumn,
		"doc type":    cfg.DocTypeColumn,
		"requirement": cfg.RequirementColumn,
	} {
		col, err := config.ResolveColumn(schema, ref)
		if err != nil {
			return nil, &Error{Stage: StageClassifier, Kind: KindStructuralViolation, Message: "bad " + name + " column", Err: err}
		}
		cols[name] = col
	}
	var clear []int
	for _, ref := range cfg.ClearColumns {
		col, err := config.ResolveColumn(schema, ref)
		if err != nil {
			return nil, &Error{Stage: StageClassifier, Kind: KindStructuralViolation, Message: "bad clear column", Err: err}
		}
		clear = append(clear, col)
	}

	res := &Result{Grid: g.Clone()}
	out := res.Grid
	for row := out.Rows; row >= schema.FirstDataRow(); row-- {
		text := strings.ToLower(out.Text(row, cols["source"]))
		for _, l := range cfg.RemoveRowLiterals {
			if l != "" && strings.Contains(text, strings.ToLower(l)) {
				out.DeleteRow(row)
				break
			}
		}
	}

	for row := schema.FirstDataRow(); row <= out.Rows; row++ {
		text := out.TrimmedText(row, cols["source"])
		if text == "" {
			continue
		}
		if docType := documentType(text, numbered); docType != "" && !protected(out.TrimmedText(row, cols["doc type"]), cfg.ProtectedDocTypes) {
			out.Set(row, cols["doc type"], docType)
		}
		if codes := c.Codes(text, cfg.RequirementCategories); len(codes) > 0 {
			out.Set(row, cols["requirement"], strings.Join(codes, cfg.Joiner))
		}
	}

	for row := schema.FirstDataRow(); row <= out.Rows; row++ {
		for _, col := range clear {
			out.Set(row, col, nil)
		}
	}
	return res, nil
}

// documentType returns the first word of text unless it starts with a
// numbered prefix such as "1/".
func documentType(text string, numbered *regexp.Regexp) string {
	if numbered != nil && numbered.MatchString(text) {
		return ""
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

func protected(current string, types []string) bool {
	for _, t := range types {
		if strings.EqualFold(current, t) {
			return true
		}
	}
	return false
}

func hasKeyword(text string, keywords []string) bool {
	for _, k := range keywords {
		if match.ContainsPhrase(text, k) {
			return true
		}
	}
	return false
}

// canonicalCode upper-cases a code and removes its whitespace.
func canonicalCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
}
