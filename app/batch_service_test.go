package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"karyoscore/domain/batch"
	"karyoscore/internal"
	"karyoscore/internal/errors"
	"karyoscore/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRunRepository struct {
	mu    sync.Mutex
	runs  []*batch.Run
	fails bool
}

func (r *memoryRunRepository) Save(_ context.Context, run *batch.Run) error {
	if r.fails {
		return errors.DatabaseError("save failed", stderrors.New("disk full"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *memoryRunRepository) Get(_ context.Context, id string) (*batch.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, errors.NotFound("run " + id)
}

func (r *memoryRunRepository) List(_ context.Context, limit int) ([]*batch.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, nil
}

func intPtr(n int) *int { return &n }

func newBatchService(repo *memoryRunRepository, opts BatchOptions, m *metrics.Metrics) *BatchService {
	logger := internal.NewNopLogger()
	if repo == nil {
		return NewBatchService(NewAnalysisService(logger, m), nil, opts, logger, m)
	}
	return NewBatchService(NewAnalysisService(logger, m), repo, opts, logger, m)
}

func TestBatchRunKeepsInputOrder(t *testing.T) {
	records := make([]batch.Record, 0, 200)
	for i := 0; i < 200; i++ {
		formula := "46,XY[20]"
		if i%2 == 0 {
			formula = "47,XX,+8[20]"
		}
		records = append(records, batch.Record{Line: i + 1, Formula: formula})
	}

	svc := newBatchService(nil, BatchOptions{Workers: 8}, nil)
	run, err := svc.Run(context.Background(), "order.csv", records, false)
	require.NoError(t, err)

	require.Len(t, run.Results, 200)
	for i, r := range run.Results {
		assert.Equal(t, i+1, r.Line)
		assert.Equal(t, records[i].Formula, r.Formula)
		assert.Equal(t, batch.MatchNotAvailable, r.Match)
		if i%2 == 0 {
			assert.Equal(t, 1, r.AutoCount)
		} else {
			assert.Equal(t, 0, r.AutoCount)
		}
	}
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "order.csv", run.Source)
}

func TestBatchRunComparesManualCounts(t *testing.T) {
	records := []batch.Record{
		{Line: 1, Formula: "47,XX,+8[20]", ManualCount: intPtr(1)},
		{Line: 2, Formula: "48,XX,+8,+21[20]", ManualCount: intPtr(1)},
		{Line: 3, Formula: "   ", ManualCount: intPtr(0)},
		{Line: 4, Formula: "46,XY[20]"},
	}

	repo := &memoryRunRepository{}
	m := metrics.New()
	svc := newBatchService(repo, BatchOptions{Workers: 2}, m)
	run, err := svc.Run(context.Background(), "cases.xlsx", records, true)
	require.NoError(t, err)

	assert.Equal(t, batch.MatchYes, run.Results[0].Match)
	assert.Equal(t, batch.MatchNo, run.Results[1].Match)
	assert.Equal(t, ErrEmptyFormula, run.Results[2].Error)
	assert.Equal(t, batch.MatchNo, run.Results[2].Match)
	assert.Equal(t, batch.MatchNo, run.Results[3].Match)

	s := run.Summary
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 25, s.MatchPercent)
	assert.True(t, s.HasManualCount)
	assert.InDelta(t, 0.5, s.MeanAbsDiff, 1e-9)
	assert.InDelta(t, 1.0, s.MedianAuto, 1e-9)

	require.Len(t, repo.runs, 1)
	assert.Equal(t, run.ID, repo.runs[0].ID)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BatchRuns))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.BatchRows))
	assert.InDelta(t, 0.25, testutil.ToFloat64(m.BatchAgreement), 1e-9)
}

func TestBatchRunSaveFailureIsNotFatal(t *testing.T) {
	svc := newBatchService(&memoryRunRepository{fails: true}, BatchOptions{}, nil)
	run, err := svc.Run(context.Background(), "cases.csv", []batch.Record{{Line: 1, Formula: "47,XX,+8[20]"}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Summary.Rows)
}

func TestBatchRunRejectsTooManyRows(t *testing.T) {
	records := make([]batch.Record, 3)
	svc := newBatchService(nil, BatchOptions{MaxRows: 2}, nil)
	_, err := svc.Run(context.Background(), "big.csv", records, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestBatchRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []batch.Record{{Line: 1, Formula: "47,XX,+8[20]"}}
	svc := newBatchService(nil, BatchOptions{Workers: 1}, nil)
	_, err := svc.Run(ctx, "cases.csv", records, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchRunEmpty(t *testing.T) {
	svc := newBatchService(nil, BatchOptions{}, nil)
	run, err := svc.Run(context.Background(), "empty.csv", nil, true)
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	assert.Equal(t, 0, run.Summary.MatchPercent)
}

func TestSummarizeCorrelation(t *testing.T) {
	var results []batch.RecordResult
	for i := 1; i <= 4; i++ {
		r := batch.RecordResult{Line: i, Formula: fmt.Sprint(i), AutoCount: i, ManualCount: intPtr(2 * i)}
		r.Compare(true)
		results = append(results, r)
	}

	s := Summarize(results, true)
	assert.InDelta(t, 1.0, s.Correlation, 1e-9)
	assert.InDelta(t, 2.5, s.MeanAbsDiff, 1e-9)
	assert.InDelta(t, 2.5, s.MedianAuto, 1e-9)
	assert.Equal(t, 0, s.Matched)
}

func TestSummarizeConstantCountsHasNoCorrelation(t *testing.T) {
	results := []batch.RecordResult{
		{AutoCount: 1, ManualCount: intPtr(1), Match: batch.MatchYes},
		{AutoCount: 1, ManualCount: intPtr(1), Match: batch.MatchYes},
	}

	s := Summarize(results, true)
	assert.Equal(t, 0.0, s.Correlation)
	assert.Equal(t, 100, s.MatchPercent)
}
