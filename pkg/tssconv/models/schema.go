package models

import "strings"

// SchemaColumnCount is the number of canonical output columns.
const SchemaColumnCount = 17

// Column describes one canonical output column.
type Column struct {
	// Name is the header text written to the output.
	Name string `yaml:"name" json:"name"`
	// Aliases are additional source header labels mapped onto this column.
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	// Fill is the header background color (RGB hex).
	Fill string `yaml:"fill" json:"fill"`
	// FontColor is the header font color (RGB hex).
	FontColor string `yaml:"font_color" json:"font_color"`
	// Width is the column width in characters.
	Width float64 `yaml:"width" json:"width"`
}

// Schema is the versioned canonical output layout.
type Schema struct {
	// Version identifies the schema revision.
	Version string `yaml:"version" json:"version"`
	// HeaderRow is the output row carrying the column headers; rows above
	// it are reserved for article names.
	HeaderRow int `yaml:"header_row" json:"header_row"`
	// Columns lists the canonical columns in output order.
	Columns []Column `yaml:"columns" json:"columns"`
}

// Index returns the 1-based position of the named column, or 0.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return i + 1
		}
	}
	return 0
}

// Letter returns the column letter of the named column, or "".
func (s Schema) Letter(name string) string {
	if i := s.Index(name); i > 0 {
		return ColumnLetter(i)
	}
	return ""
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// FirstDataRow returns the first output row below the headers.
func (s Schema) FirstDataRow() int {
	return s.HeaderRow + 1
}
