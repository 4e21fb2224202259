package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scoring holds the fuzzy-match weights. The defaults reproduce the
// behaviour tenants are used to; tune per deployment if needed.
type Scoring struct {
	// TermWeight is added per query term found in the candidate name.
	TermWeight int
	// LengthBonus is added when the candidate and query lengths differ by
	// less than LengthWindow characters.
	LengthBonus  int
	LengthWindow int
	// BundleBonus is added when the candidate name itself looks like a
	// combination of items ("Corte e Barba", "Cut + Color").
	BundleBonus int
	// MinScore is exclusive: a winner must score strictly above it.
	MinScore int
	// MinTermLength is exclusive as well.
	MinTermLength int
}

func DefaultScoring() Scoring {
	return Scoring{
		TermWeight:    10,
		LengthBonus:   1,
		LengthWindow:  5,
		BundleBonus:   2,
		MinScore:      5,
		MinTermLength: 2,
	}
}

// conjunctions separate items in a bundled request.
var conjunctions = map[string]bool{
	"and":  true,
	"with": true,
	"e":    true,
	"com":  true,
	"&":    true,
	"+":    true,
}

// words lowercases s and splits it on whitespace and commas, keeping '&' and
// '+' as words of their own.
func words(s string) []string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(",", " ", "&", " & ", "+", " + ").Replace(s)
	return strings.FieldsFunc(s, unicode.IsSpace)
}

// Terms returns the distinct search terms of a query, in order.
func (sc Scoring) Terms(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range words(query) {
		if conjunctions[w] || utf8.RuneCountInString(w) <= sc.MinTermLength || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// IsBundle reports whether name reads like several items joined together.
func IsBundle(name string) bool {
	if strings.Contains(name, ",") {
		return true
	}
	for _, w := range words(name) {
		if conjunctions[w] {
			return true
		}
	}
	return false
}

// Score rates candidate against query. It is a pure function of its inputs.
func (sc Scoring) Score(query string, terms []string, candidate string) int {
	lower := strings.ToLower(candidate)
	score := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			score += sc.TermWeight
		}
	}
	if abs(lengthDiff(candidate, query)) < sc.LengthWindow {
		score += sc.LengthBonus
	}
	if IsBundle(candidate) {
		score += sc.BundleBonus
	}
	return score
}

func lengthDiff(a, b string) int {
	return utf8.RuneCountInString(a) - utf8.RuneCountInString(b)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
