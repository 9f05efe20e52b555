// Package store persists evaluation runs to SQLite so metric trends
// across model and rule-corpus revisions survive the process.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"compass/internal/evaluator"
	"compass/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// ResultStore is the SQLite-backed run history.
type ResultStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Run is a persisted run summary row.
type Run struct {
	ID        string
	StartedAt time.Time
	Generator string
	Dataset   string
	Samples   int
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Alignment float64
	Duration  time.Duration
}

// SampleRow is a persisted per-sample result.
type SampleRow struct {
	RunID     string
	SampleID  string
	Expected  []string
	Detected  []string
	Prompts   string // JSON
	Aligned   int
	LatencyMs int64
	Err       string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*ResultStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set synchronous=NORMAL: %v", err)
	}

	s := &ResultStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("result store ready at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *ResultStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		generator TEXT NOT NULL,
		dataset TEXT NOT NULL,
		samples INTEGER NOT NULL,
		accuracy REAL NOT NULL,
		precision_ REAL NOT NULL,
		recall REAL NOT NULL,
		f1 REAL NOT NULL,
		alignment REAL NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_generator ON runs(generator);

	CREATE TABLE IF NOT EXISTS sample_results (
		run_id TEXT NOT NULL,
		sample_id TEXT NOT NULL,
		expected TEXT,
		detected TEXT,
		prompts_json TEXT,
		aligned INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		PRIMARY KEY (run_id, sample_id),
		FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun persists a harness run and its per-sample results in one
// transaction.
func (s *ResultStore) SaveRun(run *evaluator.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, generator, dataset, samples,
			accuracy, precision_, recall, f1, alignment, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Generator, run.Dataset, run.Metrics.Samples,
		run.Metrics.Accuracy, run.Metrics.Precision, run.Metrics.Recall,
		run.Metrics.F1, run.Metrics.PromptAlignment, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sample_results (run_id, sample_id, expected, detected,
			prompts_json, aligned, latency_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		promptsJSON, err := json.Marshal(r.Prompts)
		if err != nil {
			return fmt.Errorf("failed to marshal prompts for %s: %w", r.Sample.ID, err)
		}
		_, err = stmt.Exec(run.ID, r.Sample.ID,
			strings.Join(r.Sample.Expected, ","), strings.Join(r.Detected, ","),
			string(promptsJSON), r.Aligned, r.LatencyMs, r.Err)
		if err != nil {
			return fmt.Errorf("failed to insert sample result %s: %w", r.Sample.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	logging.Store("saved run %s (%d samples)", run.ID, len(run.Results))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *ResultStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, started_at, generator, dataset, samples,
			accuracy, precision_, recall, f1, alignment, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Generator, &r.Dataset,
			&r.Samples, &r.Accuracy, &r.Precision, &r.Recall, &r.F1,
			&r.Alignment, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the per-sample rows for a run.
func (s *ResultStore) RunResults(runID string) ([]SampleRow, error) {
	rows, err := s.db.Query(`
		SELECT run_id, sample_id, expected, detected, prompts_json,
			aligned, latency_ms, error
		FROM sample_results WHERE run_id = ? ORDER BY sample_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample results: %w", err)
	}
	defer rows.Close()

	var results []SampleRow
	for rows.Next() {
		var row SampleRow
		var expected, detected string
		if err := rows.Scan(&row.RunID, &row.SampleID, &expected, &detected,
			&row.Prompts, &row.Aligned, &row.LatencyMs, &row.Err); err != nil {
			return nil, fmt.Errorf("failed to scan sample result: %w", err)
		}
		row.Expected = splitCodes(expected)
		row.Detected = splitCodes(detected)
		results = append(results, row)
	}
	return results, rows.Err()
}

// Close closes the database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

func splitCodes(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
