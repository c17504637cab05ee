package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun inserts a run record and assigns its Seq.
// Unlike replicate writes, a duplicate run ID is an error: run IDs are
// generated fresh for every execution.
func (s *Store) WriteRun(ctx context.Context, run *Run) error {
	paramsJSON, err := marshalObject(run.Params)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	configJSON, err := marshalObject(run.Config)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, name, problem, algorithm, params, config, seed, replicates, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.Name,
		run.Problem,
		run.Algorithm,
		paramsJSON,
		configJSON,
		int64(run.Seed), // stored bit-for-bit; SQLite has no unsigned type
		run.Replicates,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	run.Seq = seq
	return nil
}

// WriteReplicate inserts a replicate and its history in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same replicate
// twice keeps the first record.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteReplicate(ctx context.Context, rep *Replicate, history []HistoryPoint) error {
	traceJSON, fp, err := marshalTrace(rep.Trace)
	if err != nil {
		return fmt.Errorf("write replicate: %w", err)
	}
	if rep.Fingerprint == "" {
		rep.Fingerprint = fp
	} else if rep.Fingerprint != fp {
		return fmt.Errorf("write replicate: fingerprint %s does not match trace (%s)", rep.Fingerprint, fp)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write replicate: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO replicates
		(run_id, idx, fitness, generations, evaluations, stop, pheno, trace, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, idx) DO NOTHING
	`,
		rep.RunID,
		rep.Index,
		rep.Fitness,
		rep.Generations,
		rep.Evaluations,
		rep.Stop,
		rep.Pheno,
		traceJSON,
		rep.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("write replicate: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write replicate: rows affected: %w", err)
	}
	if inserted == 0 {
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (run_id, replicate, generation, fitness, evaluations)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write replicate: prepare history: %w", err)
	}
	defer stmt.Close()

	for _, h := range history {
		if _, err := stmt.ExecContext(ctx, rep.RunID, rep.Index, h.Generation, h.Fitness, h.Evaluations); err != nil {
			return fmt.Errorf("write replicate: history generation %d: %w", h.Generation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write replicate: commit: %w", err)
	}
	return nil
}
