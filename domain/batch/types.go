// Package batch holds the table-analysis records exchanged between the
// ingestion, orchestration, storage and export layers.
package batch

import (
	"fmt"
	"strings"
	"time"

	"karyoscore/domain/karyotype"
)

// Record is one input row: a formula and, optionally, the count a
// cytogeneticist reported by hand.
type Record struct {
	Line        int    `json:"line"` // 1-based data row, header excluded
	Formula     string `json:"formula"`
	ManualCount *int   `json:"manual_count,omitempty"`
}

// MatchState compares the automatic count with the manual one.
type MatchState string

const (
	MatchYes          MatchState = "match"
	MatchNo           MatchState = "mismatch"
	MatchNotAvailable MatchState = "n/a"
)

// RecordResult is the analysis of one Record.
type RecordResult struct {
	Line        int               `json:"line"`
	Formula     string            `json:"formula"`
	AutoCount   int               `json:"auto_count"`
	Analysis    *karyotype.Result `json:"analysis,omitempty"`
	Error       string            `json:"error,omitempty"`
	ManualCount *int              `json:"manual_count,omitempty"`
	Match       MatchState        `json:"match"`
}

// Failed reports whether the formula could not be analyzed.
func (r RecordResult) Failed() bool {
	return r.Error != ""
}

// Detail is the one-line listing used in exports:
// "+8 (Gain of chromosome 8): 1 pts, ..." or the error text.
func (r RecordResult) Detail() string {
	if r.Failed() {
		return r.Error
	}
	if r.Analysis == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Analysis.Rows))
	for _, row := range r.Analysis.Rows {
		parts = append(parts, fmt.Sprintf("%s (%s): %d pts", row.Anomaly, row.Category, row.ScoreI))
	}
	return strings.Join(parts, ", ")
}

// Compare sets Match from the manual count. A failed row never matches.
func (r *RecordResult) Compare(hasManualColumn bool) {
	switch {
	case !hasManualColumn:
		r.Match = MatchNotAvailable
	case !r.Failed() && r.ManualCount != nil && *r.ManualCount == r.AutoCount:
		r.Match = MatchYes
	default:
		r.Match = MatchNo
	}
}

// Summary aggregates a run.
type Summary struct {
	Rows           int     `json:"rows"`
	Errors         int     `json:"errors"`
	Matched        int     `json:"matched"`
	HasManualCount bool    `json:"has_manual_count"`
	MatchPercent   int     `json:"match_percent"`
	MeanAbsDiff    float64 `json:"mean_abs_diff"`
	MedianAuto     float64 `json:"median_auto"`
	Correlation    float64 `json:"correlation"`
}

// Agreement returns Matched/Rows, 0 for an empty run.
func (s Summary) Agreement() float64 {
	if s.Rows == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Rows)
}

// Run is one analyzed table.
type Run struct {
	ID        string         `json:"id" db:"id"`
	Source    string         `json:"source" db:"source"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	Results   []RecordResult `json:"results"`
	Summary   Summary        `json:"summary"`
}
