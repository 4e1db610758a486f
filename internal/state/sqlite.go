package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Skelligg/htf-collide/internal/quest"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS verifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			problem_id INTEGER NOT NULL,
			mission_id INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			attempt_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sandbox_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			correct INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			run_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_problem
			ON verifications(problem_id, outcome);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) RecordVerification(ctx context.Context, rec Verification) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verifications (session_id, problem_id, mission_id, outcome, attempt_ts)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, int64(rec.ProblemID), int64(rec.MissionID), string(rec.Outcome),
		at.Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) RecordSandboxRun(ctx context.Context, rec SandboxRun) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	correct := 0
	if rec.Correct {
		correct = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sandbox_runs (session_id, correct, duration_ms, run_ts)
		 VALUES (?, ?, ?, ?)`,
		rec.SessionID, correct, rec.Duration.Milliseconds(), at.Format(time.RFC3339Nano))
	return err
}

// ProblemSolved reports whether any verification for the problem succeeded.
// The landing screen uses it to unlock the next door.
func (s *SQLiteStore) ProblemSolved(ctx context.Context, id quest.ProblemID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM verifications WHERE problem_id = ? AND outcome = ?`,
		int64(id), string(OutcomeCorrect)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
		        COALESCE(SUM(CASE WHEN outcome = 'correct' THEN 1 ELSE 0 END), 0),
		        COALESCE((SELECT COUNT(DISTINCT problem_id) FROM verifications WHERE outcome = 'correct'), 0)
		   FROM verifications`).Scan(&sum.Attempts, &sum.Correct, &sum.SolvedProblems)
	if err != nil {
		return Summary{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sandbox_runs`).Scan(&sum.SandboxRuns); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for k, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
