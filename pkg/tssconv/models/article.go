package models

// ArticleRecord is one article identity extracted from the document head.
type ArticleRecord struct {
	// Name is the article name.
	Name string `json:"name"`
	// Number is the article number.
	Number string `json:"number"`
	// SourceRow is the row the record was read from in the original grid.
	SourceRow int `json:"source_row"`
	// Column is the output column the record was placed in (0 before placement).
	Column int `json:"column,omitempty"`
}

// Label returns the name, or the number when the name is empty.
func (a ArticleRecord) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Number
}
