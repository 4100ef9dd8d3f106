package app

import (
	"time"

	"karyoscore/domain/karyotype"
	"karyoscore/internal"
	"karyoscore/internal/metrics"
)

// AnalysisService scores single formulas with logging and metrics around the
// pure engine
type AnalysisService struct {
	logger  *internal.Logger
	metrics *metrics.Metrics
}

// NewAnalysisService creates a new analysis service. m may be nil.
func NewAnalysisService(logger *internal.Logger, m *metrics.Metrics) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{logger: logger, metrics: m}
}

// Analyze scores one formula and returns the result with its ISCN 2024 total
func (s *AnalysisService) Analyze(formula string) (*karyotype.Result, int, error) {
	start := time.Now()
	result, total, err := karyotype.Analyze(formula)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveAnalysis(elapsed, nil, err)
		s.logger.Warn("[AnalysisService] %v", err)
		return nil, 0, err
	}

	scores := make([]int, len(result.Rows))
	for i, row := range result.Rows {
		scores[i] = row.ScoreI
	}
	s.metrics.ObserveAnalysis(elapsed, scores, nil)
	s.logger.Trace("[AnalysisService] %q -> %d anomalies, J=%d I=%d in %s",
		formula, len(result.Rows), result.TotalJ(), total, elapsed)
	return result, total, nil
}
