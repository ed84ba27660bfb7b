// Package storage persists calibration run history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/modelscout/modelscout/internal/models"
)

// SQLiteStorage records calibration runs so past experiments stay queryable
// after their console output is gone.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS calibration_runs (
		id TEXT PRIMARY KEY,
		experiment TEXT NOT NULL,
		model_name TEXT,
		status TEXT NOT NULL,
		error TEXT,
		report TEXT,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_experiment ON calibration_runs(experiment);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON calibration_runs(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts a completed or failed run.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *models.CalibrationRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calibration_runs (id, experiment, model_name, status, error, report, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Experiment, run.ModelName, run.Status, run.Error, string(run.Report),
		run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns a run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.CalibrationRun, error) {
	var run models.CalibrationRun
	var report string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, experiment, model_name, status, error, report, started_at, completed_at
		 FROM calibration_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Experiment, &run.ModelName, &run.Status, &run.Error, &report,
		&run.StartedAt, &run.CompletedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("calibration run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	run.Report = []byte(report)
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*models.CalibrationRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment, model_name, status, error, report, started_at, completed_at
		 FROM calibration_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.CalibrationRun
	for rows.Next() {
		var run models.CalibrationRun
		var report string
		if err := rows.Scan(&run.ID, &run.Experiment, &run.ModelName, &run.Status, &run.Error,
			&report, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Report = []byte(report)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CountRuns returns the total number of recorded runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calibration_runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
