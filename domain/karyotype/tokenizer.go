// Package karyotype parses ISCN karyotype formulas and scores the anomalies
// they describe under the Jondreville 2020 and ISCN 2024 conventions.
//
// Everything in this package is pure: each call builds its own clones, token
// lists and lookup maps, so callers may analyze formulas concurrently.
package karyotype

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Chromosome counts recognised in the leading ploidy field of a clone.
const (
	DiploidCount    = 46
	TriploidCount   = 69
	TetraploidCount = 92
)

// Pseudo-anomalies emitted for ploidy changes.
const (
	Tetraploidy = "Tetraploidy"
	Triploidy   = "Triploidy"
)

var (
	cellCountPattern  = regexp.MustCompile(`\[.*?\]`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
)

// Clone is one cell line of a formula, e.g. "47,XX,+8[20]".
type Clone struct {
	Index     int      // 1-based position in the formula
	Ploidy    int      // chromosome count, valid only when HasPloidy
	HasPloidy bool     // false when the first field had no parseable count
	Tokens    []string // raw anomaly tokens, fields 3 and onward
}

// Label returns the display label used in the clone membership map.
func (c Clone) Label() string {
	return fmt.Sprintf("clone%d", c.Index)
}

// PloidyAnomaly returns the pseudo-anomaly for a non-diploid clone. Counts
// other than 69 and 92 are not classified.
func (c Clone) PloidyAnomaly() (string, bool) {
	if !c.HasPloidy || c.Ploidy == DiploidCount {
		return "", false
	}
	switch c.Ploidy {
	case TetraploidCount:
		return Tetraploidy, true
	case TriploidCount:
		return Triploidy, true
	}
	return "", false
}

// ParseFormula splits a raw formula into clones. It never fails: malformed
// content degrades to clones with fewer or no tokens.
func ParseFormula(formula string) []Clone {
	compact := stripSpace(formula)
	parts := strings.Split(compact, "/")

	clones := make([]Clone, 0, len(parts))
	for i, part := range parts {
		fields := splitFields(cellCountPattern.ReplaceAllString(part, ""))
		clone := Clone{Index: i + 1}

		if len(fields) > 0 {
			if n, err := strconv.Atoi(digitsOf(fields[0])); err == nil {
				clone.Ploidy = n
				clone.HasPloidy = true
			}
		}
		// fields[1] is the sex chromosome designation
		if len(fields) > 2 {
			clone.Tokens = fields[2:]
		}
		clones = append(clones, clone)
	}
	return clones
}

// stripSpace removes every Unicode space, including no-break spaces pasted
// from spreadsheet cells.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// splitFields splits a clone on commas, trims stray dots and drops empties.
func splitFields(clone string) []string {
	var fields []string
	for _, piece := range strings.Split(clone, ",") {
		piece = strings.Trim(strings.TrimSpace(piece), ".")
		if piece == "" {
			continue
		}
		fields = append(fields, piece)
	}
	return fields
}

func digitsOf(s string) string {
	return nonDigitPattern.ReplaceAllString(s, "")
}

// Membership maps each raw anomaly token to the clone labels it occurs in.
// Keys keep first-seen order and labels repeat when a token occurs twice.
type Membership struct {
	order  []string
	clones map[string][]string
}

// NewMembership returns an empty membership map.
func NewMembership() *Membership {
	return &Membership{clones: make(map[string][]string)}
}

// Add records one occurrence of token in the given clone.
func (m *Membership) Add(token, label string) {
	if _, seen := m.clones[token]; !seen {
		m.order = append(m.order, token)
	}
	m.clones[token] = append(m.clones[token], label)
}

// Clones returns the labels recorded for token.
func (m *Membership) Clones(token string) []string {
	labels := m.clones[token]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Tokens returns the recorded tokens in first-seen order.
func (m *Membership) Tokens() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Collect flattens clones into the ordered anomaly list and its membership
// map. A clone contributes its ploidy pseudo-anomaly before its tokens.
func Collect(clones []Clone) ([]string, *Membership) {
	var anomalies []string
	membership := NewMembership()

	for _, clone := range clones {
		label := clone.Label()
		if pseudo, ok := clone.PloidyAnomaly(); ok {
			anomalies = append(anomalies, pseudo)
			membership.Add(pseudo, label)
		}
		for _, token := range clone.Tokens {
			anomalies = append(anomalies, token)
			membership.Add(token, label)
		}
	}
	return anomalies, membership
}
