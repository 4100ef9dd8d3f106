package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"karyoscore/domain/batch"
	"karyoscore/domain/karyotype"
	"karyoscore/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtr(n int) *int { return &n }

func sampleRun(t *testing.T, id string, created time.Time) *batch.Run {
	t.Helper()
	analysis, total, err := karyotype.Analyze("47,XX,+8[20]")
	require.NoError(t, err)

	return &batch.Run{
		ID:        id,
		Source:    "cases.csv",
		CreatedAt: created,
		Results: []batch.RecordResult{
			{Line: 1, Formula: "47,XX,+8[20]", AutoCount: total, Analysis: analysis, ManualCount: intPtr(1), Match: batch.MatchYes},
			{Line: 2, Formula: "", Error: "empty formula", Match: batch.MatchNo},
		},
		Summary: batch.Summary{
			Rows: 2, Errors: 1, Matched: 1, HasManualCount: true,
			MatchPercent: 50, MedianAuto: 1,
		},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestRunRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	run := sampleRun(t, "0190c2a4-0000-7000-8000-000000000001", created)
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "cases.csv", got.Source)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, run.Summary, got.Summary)

	require.Len(t, got.Results, 2)
	first := got.Results[0]
	assert.Equal(t, 1, first.AutoCount)
	require.NotNil(t, first.ManualCount)
	assert.Equal(t, 1, *first.ManualCount)
	assert.Equal(t, batch.MatchYes, first.Match)
	require.NotNil(t, first.Analysis)
	assert.Equal(t, run.Results[0].Analysis, first.Analysis)
	assert.Equal(t, run.Results[0].Detail(), first.Detail())

	second := got.Results[1]
	assert.True(t, second.Failed())
	assert.Nil(t, second.ManualCount)
	assert.Nil(t, second.Analysis)
}

func TestRunRepositoryGetUnknown(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))
	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestRunRepositoryDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))
	run := sampleRun(t, "dup", time.Now())

	require.NoError(t, repo.Save(ctx, run))
	err := repo.Save(ctx, run)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeDatabaseError))
}

func TestRunRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, sampleRun(t, id, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Empty(t, runs[0].Results)
	assert.Equal(t, 2, runs[0].Summary.Rows)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfigInvalid))
}
