package config

import (
	"github.com/ukaji3/tssconv-go/pkg/tssconv/match"
	"github.com/ukaji3/tssconv-go/pkg/tssconv/models"
)

// SchemaVersion identifies the built-in canonical schema.
const SchemaVersion = "2024.1"

// Header colors of the canonical schema.
const (
	fillCombination = "FFFF00"
	fillProduct     = "FF0000"
	fillRequirement = "0000FF"
	fillResult      = "B8E6B8"
	fontDark        = "000000"
	fontLight       = "FFFFFF"
)

// DefaultSchema returns the built-in 17-column canonical schema.
func DefaultSchema() models.Schema {
	return models.Schema{
		Version:   SchemaVersion,
		HeaderRow: 10,
		Columns: []models.Column{
			{Name: "Combination", Fill: fillCombination, FontColor: fontDark, Width: 15},
			{Name: "General Type Component(Type)", Fill: fillProduct, FontColor: fontLight, Width: 20,
				Aliases: []string{"General Type/Sub-Type in Connect", "General Type of Material in Connect"}},
			{Name: "Sub-Type Component Identity Process Name", Fill: fillProduct, FontColor: fontLight, Width: 25,
				Aliases: []string{"Component Identity", "Process Name"}},
			{Name: "Material Designation", Fill: fillProduct, FontColor: fontLight, Width: 18,
				Aliases: []string{"Material Name", "Material Reference"}},
			{Name: "Material Distributor", Fill: fillProduct, FontColor: fontLight, Width: 15,
				Aliases: []string{"Distributor", "Supplier"}},
			{Name: "Producer", Fill: fillProduct, FontColor: fontLight, Width: 12,
				Aliases: []string{"Manufacturer", "Material Producer"}},
			{Name: "Material Type In Process", Fill: fillProduct, FontColor: fontLight, Width: 20},
			{Name: "Document type", Fill: fillRequirement, FontColor: fontLight, Width: 15},
			{Name: "Requirement Source/TED", Fill: fillRequirement, FontColor: fontLight, Width: 20},
			{Name: "Sub-type", Fill: fillRequirement, FontColor: fontLight, Width: 12},
			{Name: "Regulation or substances", Fill: fillRequirement, FontColor: fontLight, Width: 20},
			{Name: "Limit", Fill: fillResult, FontColor: fontDark, Width: 10},
			{Name: "Test method", Fill: fillResult, FontColor: fontDark, Width: 15},
			{Name: "Frequency", Fill: fillResult, FontColor: fontDark, Width: 12},
			{Name: "Level", Fill: fillRequirement, FontColor: fontLight, Width: 10},
			{Name: "Warning Limit", Fill: fillResult, FontColor: fontDark, Width: 15},
			{Name: "Additional Information", Fill: fillResult, FontColor: fontDark, Width: 20},
		},
	}
}

// DefaultConfig returns the configuration matching the supplier TSS layout.
func DefaultConfig() *Config {
	return &Config{
		Anchors: AnchorsConfig{
			Header: AnchorSpec{
				Name:    "header",
				Labels:  []string{"General Type/Sub-Type in Connect", "General Type of Material in Connect"},
				MinTier: match.TierNormalized,
			},
			HeaderSearchRows: 50,
			LabelRows:        3,
			EndBoundary: AnchorSpec{
				Name:    "end boundary",
				Labels:  []string{"Oldest TR date"},
				MinTier: match.TierTokenSubset,
			},
			DataStart: AnchorSpec{
				Name:    "data start",
				Labels:  []string{"Requirements", "Requirement"},
				MinTier: match.TierNormalized,
			},
			DataStartOffset:     2,
			DataStartSearchRows: 8,
			ArticleName: AnchorSpec{
				Name:    "article name",
				Labels:  []string{"Article Name", "Article name(s)", "Art. Name"},
				MinTier: match.TierTokenSubset,
			},
			ArticleNumber: AnchorSpec{
				Name:    "article number",
				Labels:  []string{"Article No.", "Article Number", "Art. No."},
				MinTier: match.TierTokenSubset,
			},
			ArticleSearchRows: 20,
			ArticleLayout:     ArticleRows,
		},
		Schema: DefaultSchema(),
		Articles: ArticlesConfig{
			MergeNames: true,
			Fill:       "FFD4B3",
			Rotation:   90,
		},
		Mapping: MappingConfig{
			MinTier:   match.TierTokenSubset,
			Constants: map[string]string{"Document type": "TR"},
		},
		Expansion: ExpansionConfig{
			Enabled:    true,
			SkipValues: []string{"N/A"},
			Metadata: []MetadataRow{
				{Offset: 0, Column: "Requirement Source/TED"},
				{Offset: 1, Column: "Sub-type"},
				{Offset: 2, Column: "Regulation or substances"},
				{Offset: 4, Column: "Frequency"},
				{Offset: 5, Column: "Limit"},
			},
			Splits: []SplitColumn{
				{
					Labels:     []string{"SD", "SD/MSDS", "Safety Data"},
					Letter:     "G",
					Target:     "Additional Information",
					SkipValues: []string{"N/A", "Không"},
					Clear:      []string{"Document type"},
				},
			},
		},
		Reconcile: ReconcileConfig{
			KeyColumn:    "H",
			TargetColumn: "P",
			Delimiter:    ", ",
			DedupRows:    true,
		},
		Entities: EntitiesConfig{
			ReferenceColumn: "P",
			Wildcards:       []string{"all", "all items", "all products"},
			EmptyMatchesAll: true,
			Mark:            "X",
			MinTier:         match.TierTokenSubset,
			FinishedProduct: FinishedProductConfig{
				Column:   "General Type Component(Type)",
				Literals: []string{"finished product", "finish product", "finish"},
				Set:      map[string]string{"Combination": "Art"},
				Clear: []string{
					"General Type Component(Type)",
					"Sub-Type Component Identity Process Name",
					"Material Designation",
					"Producer",
				},
			},
		},
		Classifier: ClassifierConfig{
			Separators:            "&,;",
			SourceColumn:          "Additional Information",
			DocTypeColumn:         "Document type",
			RequirementColumn:     "Requirement Source/TED",
			Joiner:                " & ",
			RequirementCategories: []string{"IOS", "MAT"},
			ProtectedDocTypes:     []string{"SD"},
			NumberedPrefix:        `^\d+/`,
			RemoveRowLiterals:     []string{"finished product"},
			ClearColumns:          []string{"P"},
			Categories: []Category{
				{Name: "IOS", Keywords: []string{"IOS"}, Pattern: `\bIOS-\s*[A-Z]{2,4}-\d+|\bIOS-\d+`},
				{Name: "MAT", Keywords: []string{"MAT"}, Pattern: `\bMAT-?\d+\b`},
				{Name: "EN", Keywords: []string{"EN"}, Pattern: `\bEN\s?\d+(?:-\d+)*`},
				{Name: "ISO", Keywords: []string{"ISO"}, Pattern: `\bISO\s?\d+(?:-\d+)*`},
				{Name: "ASTM", Keywords: []string{"ASTM"}, Pattern: `\bASTM\s*\(?\s*[A-Z]?\d+(?:-\d+)?\s*\)?`},
				{Name: "GB", Keywords: []string{"GB"}, Pattern: `\bGB(?:/T)?\s?\d+(?:-\d+)?`},
				{Name: "REACH", Keywords: []string{"REACH", "SVHC"}},
				{Name: "ROHS", Keywords: []string{"RoHS"}},
				{Name: "CPSIA", Keywords: []string{"CPSIA"}},
			},
		},
	}
}
