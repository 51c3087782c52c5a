package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"
)

// Runner executes database migrations.
type Runner struct {
	db   *sql.DB
	fsys fs.FS
}

// NewRunner creates a new migration runner reading migrations from fsys.
func NewRunner(db *sql.DB, fsys fs.FS) *Runner {
	return &Runner{db: db, fsys: fsys}
}

// MigrationRecord represents a migration in the schema_migrations table.
type MigrationRecord struct {
	Version   string
	AppliedAt time.Time
}

// StatusEntry describes one available migration.
type StatusEntry struct {
	Version   string     `json:"version" yaml:"version"`
	Name      string     `json:"name" yaml:"name"`
	Applied   bool       `json:"applied" yaml:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

// EnsureMigrationTable creates the schema_migrations table if it doesn't exist.
func (r *Runner) EnsureMigrationTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// GetAppliedMigrations returns all applied migration versions.
func (r *Runner) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	query := `SELECT version, applied_at FROM schema_migrations ORDER BY version`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var rec MigrationRecord
		if err := rows.Scan(&rec.Version, &rec.AppliedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetPendingMigrations returns migrations that need to be applied.
func (r *Runner) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := Load(r.fsys, DirectionUp)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	return Pending(available, applied), nil
}

// Pending returns the available migrations that are not applied, in order.
func Pending(available []Migration, applied []MigrationRecord) []Migration {
	appliedSet := make(map[string]bool, len(applied))
	for _, rec := range applied {
		appliedSet[rec.Version] = true
	}

	var pending []Migration
	for _, m := range available {
		if !appliedSet[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Up runs all pending migrations and returns the applied ones.
func (r *Runner) Up(ctx context.Context) ([]Migration, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure migration table: %w", err)
	}

	pending, err := r.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}

	done := make([]Migration, 0, len(pending))
	for _, m := range pending {
		if err := r.runMigration(ctx, m); err != nil {
			return done, fmt.Errorf("migration %s failed: %w", m.Version, err)
		}
		done = append(done, m)
	}
	return done, nil
}

// Down rolls back the last applied migration. It returns nil when nothing
// is applied.
func (r *Runner) Down(ctx context.Context) (*Migration, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure migration table: %w", err)
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	if len(applied) == 0 {
		return nil, nil
	}

	// Get the last migration
	last := applied[len(applied)-1]

	downs, err := Load(r.fsys, DirectionDown)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}
	for _, m := range downs {
		if m.Version == last.Version {
			if err := r.runMigration(ctx, m); err != nil {
				return nil, fmt.Errorf("rollback %s failed: %w", m.Version, err)
			}
			return &m, nil
		}
	}
	return nil, fmt.Errorf("migration file not found: %s_*.down.sql", last.Version)
}

// runMigration executes a single migration and records it in one
// transaction.
func (r *Runner) runMigration(ctx context.Context, m Migration) error {
	content, err := ReadMigrationContent(r.fsys, m)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Execute migration
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return err
	}

	if m.Direction == DirectionUp {
		_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version)
	} else {
		_, err = tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", m.Version)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Status returns every available migration with its applied state.
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	available, err := Load(r.fsys, DirectionUp)
	if err != nil {
		return nil, err
	}

	return BuildStatus(available, applied), nil
}

// BuildStatus merges available migrations with the applied records.
func BuildStatus(available []Migration, applied []MigrationRecord) []StatusEntry {
	appliedSet := make(map[string]MigrationRecord, len(applied))
	for _, rec := range applied {
		appliedSet[rec.Version] = rec
	}

	entries := make([]StatusEntry, 0, len(available))
	for _, m := range available {
		e := StatusEntry{Version: m.Version, Name: m.Name}
		if rec, ok := appliedSet[m.Version]; ok {
			at := rec.AppliedAt
			e.Applied = true
			e.AppliedAt = &at
		}
		entries = append(entries, e)
	}
	return entries
}
