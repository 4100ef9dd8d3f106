package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"karyoscore/domain/batch"
	"karyoscore/domain/karyotype"
	"karyoscore/internal/errors"
	"karyoscore/ports"

	"github.com/jmoiron/sqlx"
)

// runRow is the batch_runs record
type runRow struct {
	ID             string    `db:"id"`
	Source         string    `db:"source"`
	CreatedAt      time.Time `db:"created_at"`
	RowCount       int       `db:"row_count"`
	ErrorCount     int       `db:"error_count"`
	MatchedCount   int       `db:"matched_count"`
	HasManualCount bool      `db:"has_manual_count"`
	MatchPercent   int       `db:"match_percent"`
	MeanAbsDiff    float64   `db:"mean_abs_diff"`
	MedianAuto     float64   `db:"median_auto"`
	Correlation    float64   `db:"correlation"`
}

// resultRow is the batch_rows record. The score rows are not stored, only
// the text detail.
type resultRow struct {
	RunID       string        `db:"run_id"`
	Line        int           `db:"line"`
	Formula     string        `db:"formula"`
	AutoCount   int           `db:"auto_count"`
	ManualCount sql.NullInt64 `db:"manual_count"`
	MatchState  string        `db:"match_state"`
	Detail      string        `db:"detail"`
	Error       string        `db:"error"`
}

const runColumns = `id, source, created_at, row_count, error_count, matched_count,
	has_manual_count, match_percent, mean_abs_diff, median_auto, correlation`

// runRepository implements ports.RunRepository
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// Save inserts a run and its rows in one transaction
func (r *runRepository) Save(ctx context.Context, run *batch.Run) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO batch_runs (`+runColumns+`) VALUES (
		:id, :source, :created_at, :row_count, :error_count, :matched_count,
		:has_manual_count, :match_percent, :mean_abs_diff, :median_auto, :correlation)`,
		toRunRow(run))
	if err != nil {
		return errors.DatabaseError("failed to insert run "+run.ID, err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO batch_rows (
		run_id, line, formula, auto_count, manual_count, match_state, detail, error
	) VALUES (
		:run_id, :line, :formula, :auto_count, :manual_count, :match_state, :detail, :error)`)
	if err != nil {
		return errors.DatabaseError("failed to prepare row insert", err)
	}
	defer stmt.Close()

	for _, result := range run.Results {
		if _, err := stmt.ExecContext(ctx, toResultRow(run.ID, result)); err != nil {
			return errors.DatabaseError("failed to insert row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run "+run.ID, err)
	}
	return nil
}

// Get loads a run and re-derives each row's analysis from its formula
func (r *runRepository) Get(ctx context.Context, id string) (*batch.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+runColumns+` FROM batch_runs WHERE id = ?`), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("run " + id)
		}
		return nil, errors.DatabaseError("failed to get run", err)
	}

	var rows []resultRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT
		run_id, line, formula, auto_count, manual_count, match_state, detail, error
	FROM batch_rows WHERE run_id = ? ORDER BY line`), id)
	if err != nil {
		return nil, errors.DatabaseError("failed to get run rows", err)
	}

	run := fromRunRow(row)
	run.Results = make([]batch.RecordResult, 0, len(rows))
	for _, rr := range rows {
		run.Results = append(run.Results, fromResultRow(rr))
	}
	return run, nil
}

// List returns the latest runs without their rows
func (r *runRepository) List(ctx context.Context, limit int) ([]*batch.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT `+runColumns+`
	FROM batch_runs ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	runs := make([]*batch.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, fromRunRow(row))
	}
	return runs, nil
}

func toRunRow(run *batch.Run) runRow {
	s := run.Summary
	return runRow{
		ID:             run.ID,
		Source:         run.Source,
		CreatedAt:      run.CreatedAt.UTC(),
		RowCount:       s.Rows,
		ErrorCount:     s.Errors,
		MatchedCount:   s.Matched,
		HasManualCount: s.HasManualCount,
		MatchPercent:   s.MatchPercent,
		MeanAbsDiff:    s.MeanAbsDiff,
		MedianAuto:     s.MedianAuto,
		Correlation:    s.Correlation,
	}
}

func fromRunRow(row runRow) *batch.Run {
	return &batch.Run{
		ID:        row.ID,
		Source:    row.Source,
		CreatedAt: row.CreatedAt.UTC(),
		Summary: batch.Summary{
			Rows:           row.RowCount,
			Errors:         row.ErrorCount,
			Matched:        row.MatchedCount,
			HasManualCount: row.HasManualCount,
			MatchPercent:   row.MatchPercent,
			MeanAbsDiff:    row.MeanAbsDiff,
			MedianAuto:     row.MedianAuto,
			Correlation:    row.Correlation,
		},
	}
}

func toResultRow(runID string, result batch.RecordResult) resultRow {
	row := resultRow{
		RunID:      runID,
		Line:       result.Line,
		Formula:    result.Formula,
		AutoCount:  result.AutoCount,
		MatchState: string(result.Match),
		Detail:     result.Detail(),
		Error:      result.Error,
	}
	if result.ManualCount != nil {
		row.ManualCount = sql.NullInt64{Int64: int64(*result.ManualCount), Valid: true}
	}
	return row
}

func fromResultRow(row resultRow) batch.RecordResult {
	result := batch.RecordResult{
		Line:      row.Line,
		Formula:   row.Formula,
		AutoCount: row.AutoCount,
		Error:     row.Error,
		Match:     batch.MatchState(row.MatchState),
	}
	if row.ManualCount.Valid {
		n := int(row.ManualCount.Int64)
		result.ManualCount = &n
	}
	if result.Error == "" {
		if analysis, _, err := karyotype.Analyze(row.Formula); err == nil {
			result.Analysis = analysis
		} else {
			result.Error = err.Error()
		}
	}
	return result
}
