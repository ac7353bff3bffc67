// Package ledger keeps one row per (T, tau, percent) composite in SQL, so
// sweeps can be compared and reported on without re-reading the artifact
// tree. SQLite and PostgreSQL are supported.
package ledger

import (
	"context"
	"strings"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const resultColumns = `run_id, t, tau, percent, threshold, exceedances, samples, sigma_aa, norm_ratio`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Ledger implements ports.ResultSink on a SQL database.
type Ledger struct {
	db *sqlx.DB
}

// Open connects to dsn. postgres:// and postgresql:// URLs use lib/pq;
// sqlite://path, :memory: and plain file paths use SQLite.
func Open(ctx context.Context, dsn string) (*Ledger, error) {
	driver, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, errors.DatabaseError("failed to open ledger", err)
	}
	if driver == "sqlite" {
		// One connection keeps :memory: databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to connect to ledger", err)
	}
	return New(db), nil
}

// New wraps an open database.
func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

func parseDSN(dsn string) (driver, source string, err error) {
	switch {
	case dsn == "":
		return "", "", errors.ConfigInvalid("ledger DSN is empty")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.Contains(dsn, "://"):
		return "", "", errors.ConfigInvalid("unsupported ledger DSN scheme in " + dsn)
	}
	return "sqlite", dsn, nil
}

// Migrate creates the schema if needed.
func (l *Ledger) Migrate(ctx context.Context) error {
	return NewRunner().Run(ctx, l.db)
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record upserts result. A rerun of the same (T, tau, percent) replaces
// the earlier row, like it replaces the artifacts on disk.
func (l *Ledger) Record(ctx context.Context, result climate.Result) error {
	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO composite_results (`+resultColumns+`)
		VALUES (:run_id, :t, :tau, :percent, :threshold, :exceedances, :samples, :sigma_aa, :norm_ratio)
		ON CONFLICT (t, tau, percent) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			threshold = EXCLUDED.threshold,
			exceedances = EXCLUDED.exceedances,
			samples = EXCLUDED.samples,
			sigma_aa = EXCLUDED.sigma_aa,
			norm_ratio = EXCLUDED.norm_ratio,
			recorded_at = CURRENT_TIMESTAMP`, result)
	if err != nil {
		return errors.DatabaseError("failed to record "+result.Key().String(), err)
	}
	return nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	RunID string
	Ts    []int
}

// List returns results ordered by T, then tau and percent descending,
// which is the sweep order.
func (l *Ledger) List(ctx context.Context, filter Filter) ([]climate.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM composite_results WHERE 1 = 1`
	var args []interface{}
	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if len(filter.Ts) > 0 {
		query += ` AND t IN (?)`
		args = append(args, filter.Ts)
	}
	query += ` ORDER BY t, tau DESC, percent DESC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.DatabaseError("failed to build result query", err)
	}
	var results []climate.Result
	if err := l.db.SelectContext(ctx, &results, l.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list results", err)
	}
	return results, nil
}

// Worst returns the n results with the largest norm_ratio.
func (l *Ledger) Worst(ctx context.Context, n int) ([]climate.Result, error) {
	if n < 1 {
		return nil, errors.InvalidInput("worst needs n >= 1")
	}
	var results []climate.Result
	err := l.db.SelectContext(ctx, &results, l.db.Rebind(`
		SELECT `+resultColumns+` FROM composite_results
		ORDER BY norm_ratio DESC, t, tau DESC, percent DESC
		LIMIT ?`), n)
	if err != nil {
		return nil, errors.DatabaseError("failed to query worst results", err)
	}
	return results, nil
}
