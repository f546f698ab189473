package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/queryir"
	"github.com/roach88/pulse/internal/querysql"
)

// runColumnNames is the column order scanRun expects.
var runColumnNames = []string{
	"id", "seq", "result_key", "network_hash", "network", "mode",
	"trigger_node", "presses", "high", "low", "answer", "engine_version",
}

var runColumns = strings.Join(runColumnNames, ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.RunRecord, error) {
	var (
		rec     ir.RunRecord
		network string
		trigger string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Seq,
		&rec.ResultKey,
		&rec.NetworkHash,
		&network,
		&rec.Mode,
		&trigger,
		&rec.Presses,
		&rec.Counts.High,
		&rec.Counts.Low,
		&rec.Answer,
		&rec.EngineVersion,
	)
	if err != nil {
		return rec, err
	}
	rec.Trigger = ir.NodeID(trigger)
	if err := json.Unmarshal([]byte(network), &rec.Network); err != nil {
		return rec, fmt.Errorf("run %s: decode network: %w", rec.ID, err)
	}
	return rec, nil
}

// ReadRun returns the run with the given id, including its periods.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("read run %s: %w", id, err)
	}
	if rec.Periods, err = s.readPeriods(ctx, id); err != nil {
		return ir.RunRecord{}, err
	}
	return rec, nil
}

// FindByResultKey returns the most recent run with the given result key.
// The boolean is false when no run matches.
func (s *Store) FindByResultKey(ctx context.Context, key string) (ir.RunRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE result_key = ?
		ORDER BY seq DESC
		LIMIT 1
	`, key)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, false, nil
	}
	if err != nil {
		return ir.RunRecord{}, false, fmt.Errorf("find result %s: %w", key, err)
	}
	if rec.Periods, err = s.readPeriods(ctx, rec.ID); err != nil {
		return ir.RunRecord{}, false, err
	}
	return rec, true, nil
}

// RunSchema lists the run log columns a query may read or filter on.
var RunSchema = queryir.Schema{
	"runs": runColumnNames,
}

var runQueries = querysql.NewSQLCompiler(map[string]string{"runs": "seq"})

// ListRuns returns runs in log order. A limit of 0 returns all runs;
// otherwise the most recent limit runs are returned, still oldest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ir.RunRecord, error) {
	return s.QueryRuns(ctx, nil, limit)
}

// QueryRuns returns the runs matching filter in log order, keeping only
// the most recent last runs when last is positive. A nil filter matches
// every run.
func (s *Store) QueryRuns(ctx context.Context, filter queryir.Predicate, last int) ([]ir.RunRecord, error) {
	q := queryir.Select{
		From:    "runs",
		Columns: RunSchema["runs"],
		Filter:  filter,
		Last:    last,
	}
	if v := queryir.Validate(q, RunSchema); !v.Valid {
		return nil, fmt.Errorf("query runs: %s", strings.Join(v.Problems, "; "))
	}
	query, args, err := runQueries.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ir.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("query runs: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		if runs[i].Periods, err = s.readPeriods(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) readPeriods(ctx context.Context, runID string) ([]ir.PeriodRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node, polarity, first_occurrence FROM run_periods
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read periods %s: %w", runID, err)
	}
	defer rows.Close()

	var out []ir.PeriodRecord
	for rows.Next() {
		var node, polarity string
		var p ir.PeriodRecord
		if err := rows.Scan(&node, &polarity, &p.FirstOccurrence); err != nil {
			return nil, fmt.Errorf("read periods %s: %w", runID, err)
		}
		pol, err := ir.ParsePolarity(polarity)
		if err != nil {
			return nil, fmt.Errorf("read periods %s: %w", runID, err)
		}
		p.Condition = ir.Condition{Node: ir.NodeID(node), Polarity: pol}
		out = append(out, p)
	}
	return out, rows.Err()
}
