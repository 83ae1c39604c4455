package models

// RequirementToken is one top-level segment of a requirement-source field.
type RequirementToken struct {
	// Category is the code family ("IOS", "MAT", "ISO", ...); "" when unrecognized.
	Category string `json:"category,omitempty"`
	// Code is the extracted, canonicalized code ("IOS-PRG-0272"); "" when unrecognized.
	Code string `json:"code,omitempty"`
	// RawText is the trimmed segment text.
	RawText string `json:"raw_text"`
	// Separator is the top-level separator preceding the segment ("" for the first).
	Separator string `json:"separator,omitempty"`
}

// Categorized reports whether the token matched a known code family.
func (t RequirementToken) Categorized() bool {
	return t.Category != ""
}
