package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vpnda/billing-sync/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the necessary tables if they don't exist
func (db *DB) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS fetch_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		record_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	)
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create fetch_runs table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_fetch_runs_started_at ON fetch_runs (started_at)`); err != nil {
		return fmt.Errorf("failed to create fetch_runs index: %w", err)
	}

	return nil
}

// SaveRun inserts a run, or updates it when a run with the same ID exists
func (db *DB) SaveRun(run *models.FetchRun) error {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}

	query := `
	INSERT INTO fetch_runs (id, source, started_at, finished_at, record_count, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		record_count = excluded.record_count,
		status = excluded.status,
		error = excluded.error
	`

	var finishedAt sql.NullTime
	if run.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	_, err := db.Exec(query,
		run.ID,
		run.Source,
		run.StartedAt.UTC(),
		finishedAt,
		run.RecordCount,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

const selectRuns = `
	SELECT id, source, started_at, finished_at, record_count, status, error
	FROM fetch_runs
	`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.FetchRun, error) {
	var (
		run        models.FetchRun
		finishedAt sql.NullTime
		status     string
		errText    sql.NullString
	)

	if err := row.Scan(
		&run.ID,
		&run.Source,
		&run.StartedAt,
		&finishedAt,
		&run.RecordCount,
		&status,
		&errText,
	); err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	run.Status = models.RunStatus(status)
	run.Error = errText.String
	return &run, nil
}

// GetRun retrieves a run by ID, or nil if there is none
func (db *DB) GetRun(id string) (*models.FetchRun, error) {
	run, err := scanRun(db.QueryRow(selectRuns+`WHERE id = ? LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRuns lists runs newest first. An empty source matches every source and a
// limit of zero or less means no limit.
func (db *DB) GetRuns(source string, limit int) ([]*models.FetchRun, error) {
	var (
		clauses []string
		args    []any
	)
	if source != "" {
		clauses = append(clauses, "WHERE source = ?")
		args = append(args, source)
	}
	clauses = append(clauses, "ORDER BY started_at DESC, id")
	if limit > 0 {
		clauses = append(clauses, "LIMIT ?")
		args = append(args, limit)
	}

	rows, err := db.Query(selectRuns+strings.Join(clauses, " "), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.FetchRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// PruneRuns deletes runs that started before the cutoff and returns how many
// were removed
func (db *DB) PruneRuns(before time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM fetch_runs WHERE started_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
