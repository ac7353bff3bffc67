package ledger

import (
	"context"

	"gaussapprox/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates the ledger schema. Every statement is idempotent
// and valid for both SQLite and PostgreSQL.
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

// Run executes all migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createResultsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create composite_results table", err)
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}
	return nil
}

func (r *MigrationRunner) createResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS composite_results (
			t INTEGER NOT NULL,
			tau INTEGER NOT NULL,
			percent DOUBLE PRECISION NOT NULL,
			run_id TEXT NOT NULL,
			threshold DOUBLE PRECISION NOT NULL,
			exceedances INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			sigma_aa DOUBLE PRECISION NOT NULL,
			norm_ratio DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (t, tau, percent)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_composite_results_run_id ON composite_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_composite_results_norm_ratio ON composite_results(norm_ratio)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
