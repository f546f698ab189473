package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/pulse/internal/ir"
)

// WriteRun appends a run and its period records in one transaction. The
// next seq is assigned inside the transaction and written back to rec.
func (s *Store) WriteRun(ctx context.Context, rec *ir.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("write run: id is required")
	}
	network, err := json.Marshal(rec.Network)
	if err != nil {
		return fmt.Errorf("write run: marshal network: %w", err)
	}
	if rec.EngineVersion == "" {
		rec.EngineVersion = ir.EngineVersion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, result_key, network_hash, network, mode, trigger_node, presses, high, low, answer, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		seq,
		rec.ResultKey,
		rec.NetworkHash,
		string(network),
		rec.Mode,
		string(rec.Trigger),
		rec.Presses,
		rec.Counts.High,
		rec.Counts.Low,
		rec.Answer,
		rec.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", rec.ID, err)
	}

	for i, p := range rec.Periods {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_periods (run_id, position, node, polarity, first_occurrence)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, i, string(p.Condition.Node), p.Condition.Polarity.String(), p.FirstOccurrence)
		if err != nil {
			return fmt.Errorf("write run %s: period %d: %w", rec.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", rec.ID, err)
	}
	rec.Seq = seq
	return nil
}
