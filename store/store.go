// Package store persists runs and their aggregation order in SQLite.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/dla/systems"
)

//go:embed schema.sql
var schemaSQL string

// cellBatch is how many cells are buffered before a write.
const cellBatch = 256

// Store wraps the run database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps the per-connection PRAGMAs in force.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID         string
	Seed       int64
	Params     systems.Params
	StartedAt  time.Time
	FinishedAt *time.Time
	Summary    systems.Summary
}

// Run records cells for one simulation as they aggregate. It implements
// systems.Observer.
type Run struct {
	store   *Store
	id      string
	seq     int
	pending []systems.Cell
	err     error
}

// StartRun inserts a run row and returns a recorder for its cells.
func (s *Store) StartRun(p systems.Params, seed int64) (*Run, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO runs (run_id, seed, radius, particles, max_attempts, margin, started_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, id, seed, p.Radius, p.Particles, p.MaxAttempts, p.Margin, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run recorded", "run_id", id, "seed", seed)
	return &Run{store: s, id: id, pending: make([]systems.Cell, 0, cellBatch)}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// OnAggregate buffers the cell and writes a batch when full. The first
// write error is kept and reported by Flush and Finish.
func (r *Run) OnAggregate(cell systems.Cell, _ systems.GridView) {
	if r.err != nil {
		return
	}
	r.pending = append(r.pending, cell)
	if len(r.pending) >= cellBatch {
		r.err = r.Flush()
	}
}

// Flush writes buffered cells in one transaction.
func (r *Run) Flush() error {
	if r.err != nil {
		return r.err
	}
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cells tx: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO cells (run_id, seq, x, y, distance) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare cells insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range r.pending {
		if _, err := stmt.Exec(r.id, r.seq+i, c.X, c.Y, c.Distance); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert cell %d: %w", r.seq+i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cells: %w", err)
	}
	r.seq += len(r.pending)
	r.pending = r.pending[:0]
	return nil
}

// Finish flushes remaining cells and stores the final counts.
func (r *Run) Finish(sum systems.Summary) error {
	if err := r.Flush(); err != nil {
		return err
	}
	query := `
		UPDATE runs
		SET finished_at_ns = ?, spawned = ?, aggregated = ?, escaped = ?, exhausted = ?, steps = ?
		WHERE run_id = ?
	`
	_, err := r.store.db.Exec(query, time.Now().UnixNano(),
		sum.Spawned, sum.Aggregated, sum.Escaped, sum.Exhausted, sum.Steps, r.id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*RunInfo, error) {
	query := `
		SELECT run_id, seed, radius, particles, max_attempts, margin,
		       started_at_ns, finished_at_ns,
		       spawned, aggregated, escaped, exhausted, steps
		FROM runs
		WHERE run_id = ?
	`
	info, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return info, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*RunInfo, error) {
	query := `
		SELECT run_id, seed, radius, particles, max_attempts, margin,
		       started_at_ns, finished_at_ns,
		       spawned, aggregated, escaped, exhausted, steps
		FROM runs
		ORDER BY started_at_ns DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunInfo, error) {
	var info RunInfo
	var startedNs int64
	var finishedNs sql.NullInt64
	err := row.Scan(
		&info.ID, &info.Seed,
		&info.Params.Radius, &info.Params.Particles, &info.Params.MaxAttempts, &info.Params.Margin,
		&startedNs, &finishedNs,
		&info.Summary.Spawned, &info.Summary.Aggregated, &info.Summary.Escaped,
		&info.Summary.Exhausted, &info.Summary.Steps,
	)
	if err != nil {
		return nil, err
	}
	info.StartedAt = time.Unix(0, startedNs)
	if finishedNs.Valid {
		t := time.Unix(0, finishedNs.Int64)
		info.FinishedAt = &t
	}
	return &info, nil
}

// Cells returns a run's cells in aggregation order.
func (s *Store) Cells(runID string) ([]systems.Cell, error) {
	rows, err := s.db.Query(`SELECT x, y, distance FROM cells WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var cells []systems.Cell
	for rows.Next() {
		var c systems.Cell
		if err := rows.Scan(&c.X, &c.Y, &c.Distance); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// DeleteRun removes a run and its cells.
func (s *Store) DeleteRun(runID string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
