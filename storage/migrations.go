package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Migration is one versioned schema change
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// MigrationRunner applies registered migrations in version order and records
// them in schema_migrations
type MigrationRunner struct {
	db         *sql.DB
	logger     *zap.SugaredLogger
	migrations []Migration
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *sql.DB, logger *zap.SugaredLogger) (*MigrationRunner, error) {
	runner := &MigrationRunner{
		db:     db,
		logger: logger,
	}

	if err := runner.ensureMigrationsTable(); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	return runner, nil
}

func (r *MigrationRunner) ensureMigrationsTable() error {
	_, err := r.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

// Register adds a migration to the runner
func (r *MigrationRunner) Register(m Migration) {
	r.migrations = append(r.migrations, m)
}

// AppliedVersions returns the versions recorded in schema_migrations
func (r *MigrationRunner) AppliedVersions() (map[int]bool, error) {
	rows, err := r.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Run applies every pending migration, each in its own transaction. It returns
// the number of migrations applied.
func (r *MigrationRunner) Run() (int, error) {
	applied, err := r.AppliedVersions()
	if err != nil {
		return 0, err
	}

	pending := make([]Migration, 0, len(r.migrations))
	for _, m := range r.migrations {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		start := time.Now()
		tx, err := r.db.Begin()
		if err != nil {
			return 0, fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		_, err = tx.Exec(`INSERT INTO schema_migrations (version, name, applied_at, duration_ms) VALUES (?, ?, ?, ?)`,
			m.Version, m.Name, time.Now().UTC().Format(timeLayout), time.Since(start).Milliseconds())
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
		r.logger.Infow("Applied migration", "version", m.Version, "name", m.Name, "duration", time.Since(start))
	}

	return len(pending), nil
}

func execAll(statements ...string) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// reportMigrations is the schema history of the report store
var reportMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_reports",
		Up: execAll(`
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			log_fingerprint TEXT NOT NULL DEFAULT '',
			total_count INTEGER NOT NULL,
			unresolved_refs INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			failures TEXT -- JSON array
		)`, `
		CREATE TABLE IF NOT EXISTS report_results (
			report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			object_type TEXT NOT NULL,
			relation_count INTEGER NOT NULL,
			event_count INTEGER NOT NULL DEFAULT 0,
			object_count INTEGER NOT NULL DEFAULT 0,
			model_json TEXT,
			PRIMARY KEY (report_id, position)
		)`),
	},
	{
		Version: 2,
		Name:    "index_reports",
		Up: execAll(
			`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_fingerprint ON reports(log_fingerprint)`,
		),
	},
}
