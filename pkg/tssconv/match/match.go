// Package match implements the tiered text matching used to discover
// anchors, map headers and associate entities: exact, then normalized,
// then token-subset, then no match.
package match

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tier is the strength of a match. Higher is stronger.
type Tier int

const (
	// TierNone means the texts did not match.
	TierNone Tier = iota
	// TierTokenSubset means every stemmed token of the label occurs in the text.
	TierTokenSubset
	// TierNormalized means the texts are equal after Normalize.
	TierNormalized
	// TierExact means the trimmed texts are byte-equal.
	TierExact
)

var tierNames = map[Tier]string{
	TierNone:        "none",
	TierTokenSubset: "token-subset",
	TierNormalized:  "normalized",
	TierExact:       "exact",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier converts a tier name back to a Tier.
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return t, nil
		}
	}
	return TierNone, fmt.Errorf("unknown match tier %q", s)
}

// MarshalText implements encoding.TextMarshaler so tiers read well in YAML and JSON.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Normalize case-folds, applies NFKC and collapses internal whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Words splits normalized text into letter/digit runs.
func Words(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Tokens returns the stemmed words of s.
func Tokens(s string) []string {
	words := Words(s)
	for i, w := range words {
		words[i] = stem(w)
	}
	return words
}

func stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// ContainsPhrase reports whether the words of phrase occur contiguously,
// as whole words, in text.
func ContainsPhrase(text, phrase string) bool {
	hay := Words(text)
	needle := Words(phrase)
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		ok := true
		for j, w := range needle {
			if hay[i+j] != w {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Result describes the best match of a text against a label set.
type Result struct {
	Tier       Tier
	Confidence float64
	// Label is the candidate label that produced the match.
	Label string
}

// Matched reports whether any tier matched.
func (r Result) Matched() bool {
	return r.Tier > TierNone
}

// Better reports whether r beats o: higher tier first, then confidence.
func (r Result) Better(o Result) bool {
	if r.Tier != o.Tier {
		return r.Tier > o.Tier
	}
	return r.Confidence > o.Confidence
}

// Matcher compares texts against candidate labels down to MinTier.
type Matcher struct {
	// MinTier is the weakest tier accepted as a match.
	MinTier Tier
}

// NewMatcher returns a matcher accepting matches at or above min.
func NewMatcher(min Tier) Matcher {
	return Matcher{MinTier: min}
}

// Compare matches text against a single label.
func (m Matcher) Compare(text, label string) Result {
	t := strings.TrimSpace(text)
	l := strings.TrimSpace(label)
	if t == "" || l == "" {
		return Result{}
	}
	res := Result{Label: label}
	switch {
	case t == l:
		res.Tier, res.Confidence = TierExact, 1.0
	case Normalize(t) == Normalize(l):
		res.Tier, res.Confidence = TierNormalized, 0.95
	default:
		if c, ok := tokenSubset(t, l); ok {
			res.Tier, res.Confidence = TierTokenSubset, c
		}
	}
	if res.Tier < m.MinTier || res.Tier == TierNone {
		return Result{}
	}
	return res
}

// Match returns the best result of text against labels. Ties keep the
// earliest label.
func (m Matcher) Match(text string, labels []string) Result {
	var best Result
	for _, l := range labels {
		if r := m.Compare(text, l); r.Matched() && r.Better(best) {
			best = r
		}
	}
	return best
}

// tokenSubset checks that every label token occurs in the text. The
// confidence scales with how much of the text the label explains.
func tokenSubset(text, label string) (float64, bool) {
	lt := Tokens(label)
	if len(lt) == 0 {
		return 0, false
	}
	tt := Tokens(text)
	have := make(map[string]bool, len(tt))
	for _, w := range tt {
		have[w] = true
	}
	for _, w := range lt {
		if !have[w] {
			return 0, false
		}
	}
	distinct := len(have)
	if distinct == 0 {
		return 0, false
	}
	ratio := float64(len(uniq(lt))) / float64(distinct)
	if ratio > 1 {
		ratio = 1
	}
	return 0.5 + 0.4*ratio, true
}

func uniq(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0:0]
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
