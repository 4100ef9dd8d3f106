package karyotype

import (
	"fmt"

	"karyoscore/internal/errors"
)

// Analyze parses and scores one formula and returns the result with its ISCN
// 2024 total. Any internal fault is recovered and reported as an
// ANALYSIS_FAILED error with a nil result and a zero total.
func Analyze(formula string) (result *Result, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, total = nil, 0
			err = errors.AnalysisFailed(fmt.Sprintf("error while analyzing formula %q: %v", formula, r))
		}
	}()

	anomalies, membership := Collect(ParseFormula(formula))
	result = Score(anomalies, membership)
	return result, result.TotalI(), nil
}
