package karyotype

import (
	"fmt"
	"regexp"
	"strings"
)

// Explanations attached to ISCN 2024 scores.
const (
	ExplConstitutional   = "Constitutional anomaly (0 point)"
	ExplSingleChromosome = "Single-chromosome imbalance (2 points)"
	ExplMultichromosomal = "Complex multichromosomal imbalance (2 points)"
	ExplUnbalancedTransl = "Unbalanced translocation (2 points)"
	ExplDicentric        = "Dicentric chromosome (2 points)"
	ExplStandard         = "Standard anomaly (1 point)"
)

// TotalLabel names the synthetic trailing row.
const TotalLabel = "TOTAL"

const (
	MaxScorePerAnomaly    = 2
	jondrevillePerAnomaly = 1
)

var constitutionalPattern = regexp.MustCompile(`^\+\d+c$`)

// Badge is the score band presenters colour anomalies by.
type Badge string

const (
	BadgeHigh     Badge = "high"     // 2 points
	BadgeStandard Badge = "standard" // 1 point
	BadgeNone     Badge = "none"     // 0 point
)

// Row is the score of one distinct anomaly.
type Row struct {
	Anomaly     string   `json:"anomaly"`
	Category    Category `json:"category"`
	Explanation string   `json:"explanation"`
	Occurrences int      `json:"occurrences"`
	Clones      []string `json:"clones"`
	ScoreJ      int      `json:"score_jondreville_2020"`
	ScoreI      int      `json:"score_iscn_2024"`
}

// Badge returns the band of the ISCN 2024 score.
func (r Row) Badge() Badge {
	switch {
	case r.ScoreI >= MaxScorePerAnomaly:
		return BadgeHigh
	case r.ScoreI == 1:
		return BadgeStandard
	}
	return BadgeNone
}

// Result is the scored projection of one formula. It keeps no reference to
// the clones it was computed from.
type Result struct {
	Rows  []Row `json:"rows"`
	Total Row   `json:"total"`
}

// TotalJ is the Jondreville 2020 total.
func (r *Result) TotalJ() int { return r.Total.ScoreJ }

// TotalI is the ISCN 2024 total.
func (r *Result) TotalI() int { return r.Total.ScoreI }

// AllRows returns the anomaly rows followed by the TOTAL row.
func (r *Result) AllRows() []Row {
	rows := make([]Row, 0, len(r.Rows)+1)
	rows = append(rows, r.Rows...)
	return append(rows, r.Total)
}

// Score builds the result for the flat anomaly list of a formula. Rows are
// grouped by raw token; counting and classification use the normalized form.
func Score(anomalies []string, membership *Membership) *Result {
	if membership == nil {
		membership = NewMembership()
	}
	idx := indexTokens(anomalies)
	implicit := DetectImplicit(anomalies)

	var order []string
	rawCounts := make(map[string]int)
	for _, raw := range anomalies {
		if rawCounts[raw] == 0 {
			order = append(order, raw)
		}
		rawCounts[raw]++
	}

	result := &Result{Rows: make([]Row, 0, len(order))}
	totalJ, totalI := 0, 0
	for _, raw := range order {
		norm := Normalize(raw)
		scoreI, explanation := scoreISCN(norm, idx.counts[norm], implicit)

		result.Rows = append(result.Rows, Row{
			Anomaly:     raw,
			Category:    Classify(norm),
			Explanation: explanation,
			Occurrences: rawCounts[raw],
			Clones:      membership.Clones(raw),
			ScoreJ:      jondrevillePerAnomaly,
			ScoreI:      scoreI,
		})
		totalJ += jondrevillePerAnomaly
		totalI += scoreI
	}

	result.Total = Row{Anomaly: TotalLabel, ScoreJ: totalJ, ScoreI: totalI}
	return result
}

// scoreISCN applies the ISCN 2024 convention to one normalized token.
func scoreISCN(norm string, count int, implicit map[string]Implicit) (int, string) {
	if constitutionalPattern.MatchString(norm) {
		return 0, ExplConstitutional
	}
	if info, ok := implicit[norm]; ok {
		return 0, fmt.Sprintf("%s (%s) (0 point)", info.Reason, info.Reference)
	}

	switch {
	case IsSingleChromosomeImbalance(norm, count):
		return 2, ExplSingleChromosome
	case IsComplexMultichromosomal(norm):
		return 2, ExplMultichromosomal
	case IsUnbalancedTranslocation(norm):
		return 2, ExplUnbalancedTransl
	case strings.HasPrefix(norm, "dic"):
		return 2, ExplDicentric
	}
	return 1, ExplStandard
}
