package app

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"karyoscore/domain/batch"
	"karyoscore/domain/core"
	"karyoscore/internal"
	"karyoscore/internal/errors"
	"karyoscore/internal/metrics"
	"karyoscore/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyFormula is the row error of a blank formula cell
const ErrEmptyFormula = "empty formula"

// BatchOptions bounds a batch run
type BatchOptions struct {
	Workers int // concurrent analyses, NumCPU when <= 0
	MaxRows int // rows accepted per run, unlimited when <= 0
}

// BatchService analyzes whole tables of formulas
type BatchService struct {
	analysis *AnalysisService
	repo     ports.RunRepository
	opts     BatchOptions
	logger   *internal.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewBatchService creates a batch service. repo and m may be nil.
func NewBatchService(analysis *AnalysisService, repo ports.RunRepository, opts BatchOptions, logger *internal.Logger, m *metrics.Metrics) *BatchService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if analysis == nil {
		analysis = NewAnalysisService(logger, m)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &BatchService{
		analysis: analysis,
		repo:     repo,
		opts:     opts,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run analyzes every record and returns the run with results in input order.
// A failing formula becomes an error row; only cancellation aborts the run.
func (s *BatchService) Run(ctx context.Context, source string, records []batch.Record, hasManualCount bool) (*batch.Run, error) {
	if s.opts.MaxRows > 0 && len(records) > s.opts.MaxRows {
		return nil, errors.InvalidInput(fmt.Sprintf("table has %d rows, the limit is %d", len(records), s.opts.MaxRows))
	}

	start := s.now()
	results := make([]batch.RecordResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.analyzeRecord(records[i], hasManualCount)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &batch.Run{
		ID:        core.NewRunID().String(),
		Source:    source,
		CreatedAt: start.UTC(),
		Results:   results,
		Summary:   Summarize(results, hasManualCount),
	}
	s.metrics.ObserveBatch(run.Summary.Rows, run.Summary.Agreement(), hasManualCount)
	s.logger.Info("[BatchService] run %s: %d rows, %d errors, %d matched from %s in %s",
		run.ID, run.Summary.Rows, run.Summary.Errors, run.Summary.Matched, source, time.Since(start))

	if s.repo != nil {
		if err := s.repo.Save(ctx, run); err != nil {
			s.logger.Warn("[BatchService] run %s not saved: %v", run.ID, err)
		}
	}
	return run, nil
}

func (s *BatchService) analyzeRecord(record batch.Record, hasManualCount bool) batch.RecordResult {
	result := batch.RecordResult{
		Line:        record.Line,
		Formula:     record.Formula,
		ManualCount: record.ManualCount,
	}

	if strings.TrimSpace(record.Formula) == "" {
		result.Error = ErrEmptyFormula
	} else if analysis, total, err := s.analysis.Analyze(record.Formula); err != nil {
		result.Error = err.Error()
	} else {
		result.Analysis = analysis
		result.AutoCount = total
	}

	result.Compare(hasManualCount)
	return result
}

// Summarize aggregates the results of a run. Failed rows count as rows but
// are left out of the statistics.
func Summarize(results []batch.RecordResult, hasManualCount bool) batch.Summary {
	summary := batch.Summary{Rows: len(results), HasManualCount: hasManualCount}

	var autos, paired, manuals, diffs []float64
	for _, r := range results {
		if r.Match == batch.MatchYes {
			summary.Matched++
		}
		if r.Failed() {
			summary.Errors++
			continue
		}
		autos = append(autos, float64(r.AutoCount))
		if r.ManualCount != nil {
			paired = append(paired, float64(r.AutoCount))
			manuals = append(manuals, float64(*r.ManualCount))
			diffs = append(diffs, math.Abs(float64(r.AutoCount-*r.ManualCount)))
		}
	}

	if summary.Rows > 0 {
		summary.MatchPercent = int(float64(summary.Matched) / float64(summary.Rows) * 100)
	}
	if median, err := stats.Median(autos); err == nil {
		summary.MedianAuto = median
	}
	if !hasManualCount {
		return summary
	}
	if mean, err := stats.Mean(diffs); err == nil {
		summary.MeanAbsDiff = mean
	}
	if len(paired) > 1 {
		if r := stat.Correlation(paired, manuals, nil); !math.IsNaN(r) {
			summary.Correlation = r
		}
	}
	return summary
}
