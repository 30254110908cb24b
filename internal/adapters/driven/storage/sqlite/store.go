// Package sqlite implements the import ledger on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

// Ledger records completed import windows per Monzo account so repeated
// imports resume from the last watermark instead of re-fetching.
type Ledger struct {
	db   *sql.DB
	path string
}

var _ driven.ImportLedger = (*Ledger)(nil)

// NewLedger opens (or creates) the ledger database in dataDir.
// If dataDir is empty, defaults to ~/.actual-monzo.
func NewLedger(dataDir string) (*Ledger, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".actual-monzo")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ledger.db")

	// WAL mode for better concurrency between status and import runs.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db, path: dbPath}
	if err := l.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Watermark returns the end of the last imported window for the
// account, or the zero time when nothing was imported yet.
func (l *Ledger) Watermark(ctx context.Context, monzoAccountID string) (time.Time, error) {
	var until sql.NullString
	err := l.db.QueryRowContext(ctx, `
		SELECT MAX(until) FROM import_runs WHERE monzo_account_id = ?
	`, monzoAccountID).Scan(&until)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying watermark: %w", err)
	}
	if !until.Valid || until.String == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, until.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing watermark %q: %w", until.String, err)
	}
	return t, nil
}

// RecordRun persists one completed import window.
func (l *Ledger) RecordRun(ctx context.Context, run domain.ImportRun) error {
	if run.ID == "" || run.MonzoAccountID == "" {
		return fmt.Errorf("import run missing id or account id")
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, monzo_account_id, since, until, imported, ran_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, monzo_account_id) DO UPDATE SET
			since = excluded.since,
			until = excluded.until,
			imported = excluded.imported,
			ran_at = excluded.ran_at
	`, run.ID, run.MonzoAccountID,
		run.Since.UTC().Format(time.RFC3339Nano),
		run.Until.UTC().Format(time.RFC3339Nano),
		run.Imported,
		run.RanAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording import run: %w", err)
	}
	return nil
}

// Runs returns the recorded import runs for an account, newest first.
func (l *Ledger) Runs(ctx context.Context, monzoAccountID string) ([]domain.ImportRun, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, monzo_account_id, since, until, imported, ran_at
		FROM import_runs
		WHERE monzo_account_id = ?
		ORDER BY until DESC
	`, monzoAccountID)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ImportRun
	for rows.Next() {
		var run domain.ImportRun
		var since, until, ranAt string
		if err := rows.Scan(&run.ID, &run.MonzoAccountID, &since, &until, &run.Imported, &ranAt); err != nil {
			return nil, fmt.Errorf("scanning import run: %w", err)
		}
		if run.Since, err = time.Parse(time.RFC3339Nano, since); err != nil {
			return nil, fmt.Errorf("parsing since %q: %w", since, err)
		}
		if run.Until, err = time.Parse(time.RFC3339Nano, until); err != nil {
			return nil, fmt.Errorf("parsing until %q: %w", until, err)
		}
		if run.RanAt, err = time.Parse(time.RFC3339Nano, ranAt); err != nil {
			return nil, fmt.Errorf("parsing ran_at %q: %w", ranAt, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import runs: %w", err)
	}
	return runs, nil
}

// migrate runs all pending migrations from the embedded filesystem.
func (l *Ledger) migrate(fsys embed.FS) error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := l.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, err := migrationVersion(name)
		if err != nil {
			return err
		}
		if version <= currentVersion {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := l.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(script)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

// migrationVersion parses the numeric prefix of a migration filename
// like 0001_import_runs.sql.
func migrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s has no version prefix", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("migration %s has invalid version: %w", name, err)
	}
	return version, nil
}
