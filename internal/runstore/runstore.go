// Package runstore persists row detection runs and their per-hole
// assignments in SQLite, so operators can audit what a given detection
// decided and re-load earlier assignments for comparison.
package runstore

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the runs database.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the runs database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db}, nil
}

// RunRecord is one persisted detection run.
type RunRecord struct {
	RunID      string          `json:"run_id"`
	EntityName string          `json:"entity_name,omitempty"`
	Method     string          `json:"method"`
	HoleCount  int             `json:"hole_count"`
	RowCount   int             `json:"row_count"`
	Confidence float64         `json:"confidence"`
	Status     string          `json:"status"`
	GridStyle  string          `json:"grid_style,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	Metrics    json.RawMessage `json:"metrics,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HoleAssignment is one hole's persisted row/position assignment.
type HoleAssignment struct {
	HoleID string  `json:"hole_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	RowID  int     `json:"row_id"`
	PosID  int     `json:"pos_id"`
}

// SaveRun inserts a run and its assignments in one transaction. An empty
// RunID gets a fresh UUID; a zero CreatedAt gets the current time. The
// record is updated in place so callers see the generated values.
func (s *Store) SaveRun(rec *RunRecord, assignments []HoleAssignment) error {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	err := retryOnBusy(func() error {
		tx, err := s.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO detection_runs (
				run_id, entity_name, method, hole_count, row_count,
				confidence, status, grid_style, params_json, metrics_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID,
			nullStr(rec.EntityName),
			rec.Method,
			rec.HoleCount,
			rec.RowCount,
			rec.Confidence,
			rec.Status,
			nullStr(rec.GridStyle),
			nullJSON(rec.Params),
			nullJSON(rec.Metrics),
			rec.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}

		for _, a := range assignments {
			if _, err := tx.Exec(`
				INSERT INTO hole_assignments (run_id, hole_id, x, y, row_id, pos_id)
				VALUES (?, ?, ?, ?, ?, ?)`,
				rec.RunID, a.HoleID, a.X, a.Y, a.RowID, a.PosID,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.RunID, err)
	}
	return nil
}

const runColumns = `run_id, entity_name, method, hole_count, row_count,
	confidence, status, grid_style, params_json, metrics_json, created_at`

// GetRun returns a single run by ID.
func (s *Store) GetRun(runID string) (*RunRecord, error) {
	row := s.QueryRow(`SELECT `+runColumns+` FROM detection_runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Query(`SELECT `+runColumns+` FROM detection_runs
		ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var recs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Assignments returns a run's per-hole assignments ordered by row then
// position.
func (s *Store) Assignments(runID string) ([]HoleAssignment, error) {
	rows, err := s.Query(`
		SELECT hole_id, x, y, row_id, pos_id
		FROM hole_assignments
		WHERE run_id = ?
		ORDER BY row_id, pos_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []HoleAssignment
	for rows.Next() {
		var a HoleAssignment
		if err := rows.Scan(&a.HoleID, &a.X, &a.Y, &a.RowID, &a.PosID); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteRun removes a run; its assignments cascade.
func (s *Store) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.Exec(`DELETE FROM detection_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var entity, style, params, metrics sql.NullString
	var createdAt string
	err := row.Scan(
		&rec.RunID, &entity, &rec.Method, &rec.HoleCount, &rec.RowCount,
		&rec.Confidence, &rec.Status, &style, &params, &metrics, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	rec.EntityName = entity.String
	rec.GridStyle = style.String
	rec.Params = jsonOrNil(params)
	rec.Metrics = jsonOrNil(metrics)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullJSON(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}

func jsonOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
