// Package config provides the configuration tables consumed by the
// transformation stages: anchor label variants, the canonical schema,
// field-mapping constants, reconciliation columns, entity rules and the
// requirement-code category table.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration.
type Config struct {
	Anchors    AnchorsConfig    `yaml:"anchors"`
	Schema     models.Schema    `yaml:"schema"`
	Articles   ArticlesConfig   `yaml:"articles"`
	Mapping    MappingConfig    `yaml:"mapping"`
	Expansion  ExpansionConfig  `yaml:"expansion"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Entities   EntitiesConfig   `yaml:"entities"`
	Classifier ClassifierConfig `yaml:"classifier"`
}

// AnchorSpec names an anchor and the labels accepted for it.
type AnchorSpec struct {
	// Name identifies the anchor in errors and logs.
	Name string `yaml:"name"`
	// Labels are the accepted spellings, tried in order.
	Labels []string `yaml:"labels"`
	// MinTier is the weakest match tier accepted.
	MinTier match.Tier `yaml:"min_tier"`
}

// AnchorsConfig groups every anchor the pipeline searches for.
type AnchorsConfig struct {
	// Header is the primary header anchor; all stages depend on it.
	Header AnchorSpec `yaml:"header"`
	// HeaderSearchRows bounds the header search window.
	HeaderSearchRows int `yaml:"header_search_rows"`
	// LabelRows is the number of label rows following the header row.
	LabelRows int `yaml:"label_rows"`
	// EndBoundary marks the first column past the data block (optional).
	EndBoundary AnchorSpec `yaml:"end_boundary"`
	// DataStart marks the row just above the data block's metadata rows (optional).
	DataStart AnchorSpec `yaml:"data_start"`
	// DataStartOffset is the distance from the DataStart anchor row to the first data row.
	DataStartOffset int `yaml:"data_start_offset"`
	// DataStartSearchRows bounds the DataStart search below the header row.
	DataStartSearchRows int `yaml:"data_start_search_rows"`
	// ArticleName and ArticleNumber must appear in the same row above the header.
	ArticleName   AnchorSpec `yaml:"article_name"`
	ArticleNumber AnchorSpec `yaml:"article_number"`
	// ArticleSearchRows bounds the article header search.
	ArticleSearchRows int `yaml:"article_search_rows"`
	// ArticleLayout is ArticleRows (one record per row below the labels)
	// or ArticleColumns ((name, number) pairs running right of the labels).
	ArticleLayout string `yaml:"article_layout"`
}

// Article layouts.
const (
	ArticleRows    = "rows"
	ArticleColumns = "columns"
)

// ArticlesConfig controls how article records are placed after the
// canonical columns.
type ArticlesConfig struct {
	// MergeNames merges each article name cell over the rows above the header row.
	MergeNames bool `yaml:"merge_names"`
	// Fill is the accent fill of article columns (RGB hex).
	Fill string `yaml:"fill"`
	// Rotation is the text rotation of article names in degrees.
	Rotation int `yaml:"rotation"`
	// Width is the article column width (0 keeps the default).
	Width float64 `yaml:"width,omitempty"`
}

// MappingConfig configures the field mapper.
type MappingConfig struct {
	// MinTier is the weakest tier accepted when matching source headers.
	MinTier match.Tier `yaml:"min_tier"`
	// Constants are written into every mapped row, keyed by canonical column.
	Constants map[string]string `yaml:"constants,omitempty"`
}

// MetadataRow copies a header-relative cell of a requirement column into
// a canonical column.
type MetadataRow struct {
	// Offset is relative to the header anchor row.
	Offset int `yaml:"offset"`
	// Column is a canonical column name or letter.
	Column string `yaml:"column"`
}

// SplitColumn expands a multi-line source column into one row per line.
type SplitColumn struct {
	// Labels identify the source column by its header text.
	Labels []string `yaml:"labels,omitempty"`
	// Letter is the source column used when no label matches.
	Letter string `yaml:"letter,omitempty"`
	// Target is the canonical column receiving each line.
	Target string `yaml:"target"`
	// SkipValues are ignored values (compared normalized).
	SkipValues []string `yaml:"skip_values,omitempty"`
	// Clear lists canonical columns emptied on the generated rows.
	Clear []string `yaml:"clear,omitempty"`
}

// ExpansionConfig configures the requirement expander.
type ExpansionConfig struct {
	// Enabled turns the expander on in the default pipeline.
	Enabled bool `yaml:"enabled"`
	// SkipValues are requirement cell values treated as absent.
	SkipValues []string `yaml:"skip_values,omitempty"`
	// Metadata lists the header-relative rows copied for each requirement column.
	Metadata []MetadataRow `yaml:"metadata,omitempty"`
	// Splits lists the multi-line source columns expanded into extra rows.
	Splits []SplitColumn `yaml:"splits,omitempty"`
}

// ReconcileConfig configures the multi-value reconciler.
type ReconcileConfig struct {
	// KeyColumn is the source column letter read through each row's origin.
	KeyColumn string `yaml:"key_column"`
	// TargetColumn is the canonical column name or letter reconciled in place.
	TargetColumn string `yaml:"target_column"`
	// Delimiter joins the reconciled values.
	Delimiter string `yaml:"delimiter"`
	// DedupRows removes whole duplicate rows after reconciliation.
	DedupRows bool `yaml:"dedup_rows"`
}

// FinishedProductConfig normalizes rows describing a finished product.
type FinishedProductConfig struct {
	// Column is the canonical column inspected.
	Column string `yaml:"column"`
	// Literals are matched as case-insensitive substrings.
	Literals []string `yaml:"literals"`
	// Set are canonical column values written on a match.
	Set map[string]string `yaml:"set,omitempty"`
	// Clear are canonical columns emptied on a match.
	Clear []string `yaml:"clear,omitempty"`
}

// EntitiesConfig configures the entity matcher.
type EntitiesConfig struct {
	// ReferenceColumn holds the product's referenced article text.
	ReferenceColumn string `yaml:"reference_column"`
	// Wildcards bind a row to every article record.
	Wildcards []string `yaml:"wildcards"`
	// EmptyMatchesAll binds rows with an empty reference to every record.
	EmptyMatchesAll bool `yaml:"empty_matches_all"`
	// Mark is written into the article column of an associated row.
	Mark string `yaml:"mark"`
	// MinTier is the weakest tier accepted for name/number equality.
	MinTier match.Tier `yaml:"min_tier"`
	// FinishedProduct normalizes finished-product rows before matching.
	FinishedProduct FinishedProductConfig `yaml:"finished_product"`
}

// Category is one requirement-code family.
type Category struct {
	// Name is the category code written into tokens.
	Name string `yaml:"name"`
	// Keywords classify a segment when it contains one as a whole word.
	Keywords []string `yaml:"keywords,omitempty"`
	// Pattern extracts the code; it is matched case-insensitively.
	Pattern string `yaml:"pattern,omitempty"`
}

// ClassifierConfig configures the pattern classifier.
type ClassifierConfig struct {
	// Separators are the top-level separator characters.
	Separators string `yaml:"separators"`
	// SourceColumn holds the compound requirement-source text.
	SourceColumn string `yaml:"source_column"`
	// DocTypeColumn receives the document type.
	DocTypeColumn string `yaml:"doc_type_column"`
	// RequirementColumn receives the joined codes.
	RequirementColumn string `yaml:"requirement_column"`
	// RequirementCategories limits the codes written to RequirementColumn;
	// empty means every category with a pattern.
	RequirementCategories []string `yaml:"requirement_categories,omitempty"`
	// Joiner joins codes in RequirementColumn.
	Joiner string `yaml:"joiner"`
	// ProtectedDocTypes are never overwritten.
	ProtectedDocTypes []string `yaml:"protected_doc_types,omitempty"`
	// NumberedPrefix skips document type extraction for numbered lines ("1/ ...").
	NumberedPrefix string `yaml:"numbered_prefix"`
	// RemoveRowLiterals drop rows whose source text contains one of them.
	RemoveRowLiterals []string `yaml:"remove_row_literals,omitempty"`
	// ClearColumns are emptied on every data row once classification is done.
	ClearColumns []string `yaml:"clear_columns,omitempty"`
	// Categories is the ordered code table.
	Categories []Category `yaml:"categories"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Anchors.Header.Labels) == 0 {
		return fmt.Errorf("anchors.header.labels is required")
	}
	if c.Anchors.HeaderSearchRows < 1 {
		return fmt.Errorf("anchors.header_search_rows must be positive")
	}
	switch c.Anchors.ArticleLayout {
	case "", ArticleRows, ArticleColumns:
	default:
		return fmt.Errorf("anchors.article_layout must be %q or %q, got %q", ArticleRows, ArticleColumns, c.Anchors.ArticleLayout)
	}
	if c.Anchors.LabelRows != 3 {
		return fmt.Errorf("anchors.label_rows must be 3, got %d", c.Anchors.LabelRows)
	}
	if len(c.Schema.Columns) != models.SchemaColumnCount {
		return fmt.Errorf("schema must have exactly %d columns, got %d", models.SchemaColumnCount, len(c.Schema.Columns))
	}
	if c.Schema.HeaderRow < 2 {
		return fmt.Errorf("schema.header_row must be at least 2 to leave room for article names")
	}
	seen := make(map[string]bool)
	for _, col := range c.Schema.Columns {
		key := strings.ToLower(strings.TrimSpace(col.Name))
		if key == "" {
			return fmt.Errorf("schema column names must not be empty")
		}
		if seen[key] {
			return fmt.Errorf("duplicate schema column %q", col.Name)
		}
		seen[key] = true
	}
	refs := []string{c.Reconcile.TargetColumn, c.Entities.ReferenceColumn, c.Entities.FinishedProduct.Column,
		c.Classifier.SourceColumn, c.Classifier.DocTypeColumn, c.Classifier.RequirementColumn}
	for name := range c.Mapping.Constants {
		refs = append(refs, name)
	}
	for _, m := range c.Expansion.Metadata {
		refs = append(refs, m.Column)
	}
	for _, s := range c.Expansion.Splits {
		refs = append(refs, s.Target)
		refs = append(refs, s.Clear...)
	}
	refs = append(refs, c.Entities.FinishedProduct.Clear...)
	for name := range c.Entities.FinishedProduct.Set {
		refs = append(refs, name)
	}
	refs = append(refs, c.Classifier.ClearColumns...)
	for _, ref := range refs {
		if _, err := c.Column(ref); err != nil {
			return err
		}
	}
	if _, err := models.ColumnNumber(c.Reconcile.KeyColumn); err != nil {
		return fmt.Errorf("reconcile.key_column: %w", err)
	}
	for _, cat := range c.Classifier.Categories {
		if cat.Name == "" {
			return fmt.Errorf("classifier category without name")
		}
		if cat.Pattern != "" {
			if _, err := regexp.Compile(cat.Pattern); err != nil {
				return fmt.Errorf("classifier category %s: %w", cat.Name, err)
			}
		}
	}
	if c.Classifier.NumberedPrefix != "" {
		if _, err := regexp.Compile(c.Classifier.NumberedPrefix); err != nil {
			return fmt.Errorf("classifier.numbered_prefix: %w", err)
		}
	}
	if c.Classifier.Separators == "" {
		return fmt.Errorf("classifier.separators is required")
	}
	return nil
}

// Column resolves a canonical column reference given as a schema column
// name or a column letter.
func (c *Config) Column(ref string) (int, error) {
	return ResolveColumn(c.Schema, ref)
}

// ResolveColumn resolves a column name or letter against a schema.
func ResolveColumn(s models.Schema, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("empty column reference")
	}
	if i := s.Index(ref); i > 0 {
		return i, nil
	}
	n, err := models.ColumnNumber(ref)
	if err != nil {
		return 0, fmt.Errorf("column %q is neither a schema column nor a column letter", ref)
	}
	return n, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
