package migration

import (
	"context"

	"karyoscore/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the run history schema. Statements only use types
// understood by both sqlite and postgres.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createBatchRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create batch_runs table", err)
	}

	if err := r.createBatchRowsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create batch_rows table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createBatchRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS batch_runs (
			id VARCHAR(36) PRIMARY KEY,
			source TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			row_count INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			matched_count INTEGER NOT NULL,
			has_manual_count BOOLEAN NOT NULL,
			match_percent INTEGER NOT NULL,
			mean_abs_diff DOUBLE PRECISION NOT NULL DEFAULT 0,
			median_auto DOUBLE PRECISION NOT NULL DEFAULT 0,
			correlation DOUBLE PRECISION NOT NULL DEFAULT 0
		)
	`)
	return err
}

func (r *MigrationRunner) createBatchRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS batch_rows (
			run_id VARCHAR(36) NOT NULL REFERENCES batch_runs(id) ON DELETE CASCADE,
			line INTEGER NOT NULL,
			formula TEXT NOT NULL,
			auto_count INTEGER NOT NULL,
			manual_count INTEGER,
			match_state VARCHAR(16) NOT NULL,
			detail TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, line)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_batch_runs_created_at ON batch_runs(created_at)`)
	return err
}
