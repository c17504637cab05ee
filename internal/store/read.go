package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, seq, name, problem, algorithm, params, config, seed, replicates, created_at`

// ListRuns returns all runs ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the run with the highest seq.
// Returns an error wrapping sql.ErrNoRows if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read latest run: %w", err)
	}
	return run, nil
}

// ReadReplicates returns all replicates of a run ordered by index.
func (s *Store) ReadReplicates(ctx context.Context, runID string) ([]Replicate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, fitness, generations, evaluations, stop, pheno, trace, fingerprint
		FROM replicates
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query replicates: %w", err)
	}
	defer rows.Close()

	reps := []Replicate{}
	for rows.Next() {
		rep, err := scanReplicate(rows)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replicates: %w", err)
	}
	return reps, nil
}

// ReadReplicate retrieves one replicate.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadReplicate(ctx context.Context, runID string, idx int) (Replicate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, idx, fitness, generations, evaluations, stop, pheno, trace, fingerprint
		FROM replicates
		WHERE run_id = ? AND idx = ?
	`, runID, idx)
	rep, err := scanReplicate(row)
	if err != nil {
		return Replicate{}, fmt.Errorf("read replicate %s/%d: %w", runID, idx, err)
	}
	return rep, nil
}

// ReadHistory returns the improvement history of one replicate ordered by
// generation.
func (s *Store) ReadHistory(ctx context.Context, runID string, idx int) ([]HistoryPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, fitness, evaluations
		FROM history
		WHERE run_id = ? AND replicate = ?
		ORDER BY generation ASC
	`, runID, idx)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	points := []HistoryPoint{}
	for rows.Next() {
		var h HistoryPoint
		if err := rows.Scan(&h.Generation, &h.Fitness, &h.Evaluations); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		points = append(points, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return points, nil
}

// FindByFingerprint returns every replicate whose best trace has the given
// fingerprint, ordered by run seq then index.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]Replicate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.idx, r.fitness, r.generations, r.evaluations, r.stop, r.pheno, r.trace, r.fingerprint
		FROM replicates r
		JOIN runs u ON r.run_id = u.id
		WHERE r.fingerprint = ?
		ORDER BY u.seq ASC, r.idx ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint: %w", err)
	}
	defer rows.Close()

	reps := []Replicate{}
	for rows.Next() {
		rep, err := scanReplicate(rows)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprint matches: %w", err)
	}
	return reps, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		params    string
		config    string
		seed      int64
		createdAt string
	)
	err := sc.Scan(&run.ID, &run.Seq, &run.Name, &run.Problem, &run.Algorithm,
		&params, &config, &seed, &run.Replicates, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.Params, err = unmarshalObject(params); err != nil {
		return Run{}, fmt.Errorf("run %s params: %w", run.ID, err)
	}
	if run.Config, err = unmarshalObject(config); err != nil {
		return Run{}, fmt.Errorf("run %s config: %w", run.ID, err)
	}
	run.Seed = uint64(seed)
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Run{}, fmt.Errorf("run %s created_at: %w", run.ID, err)
	}
	return run, nil
}

func scanReplicate(sc scanner) (Replicate, error) {
	var (
		rep       Replicate
		traceJSON string
	)
	err := sc.Scan(&rep.RunID, &rep.Index, &rep.Fitness, &rep.Generations, &rep.Evaluations,
		&rep.Stop, &rep.Pheno, &traceJSON, &rep.Fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return Replicate{}, err
	}
	if err != nil {
		return Replicate{}, fmt.Errorf("scan replicate: %w", err)
	}
	if rep.Trace, err = unmarshalTrace(traceJSON); err != nil {
		return Replicate{}, fmt.Errorf("replicate %s/%d: %w", rep.RunID, rep.Index, err)
	}
	return rep, nil
}
