package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/store"
	"github.com/roach88/pulse/internal/testutil"
)

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(t, "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestReplayRecordedRuns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pulse.db")
	inverter := writeNetwork(t, "inverter.txt", testutil.Inverter)
	counters := writeNetwork(t, "counters.txt", testutil.Counters(1, 2, 3))

	_, _, err := execute(t, "run", "--db", dbPath, inverter)
	require.NoError(t, err)
	_, _, err = execute(t, "period", "--db", dbPath, "--sink", "rx", counters)
	require.NoError(t, err)

	out, _, err := execute(t, "replay", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var result ReplayResult
	decodeResponse(t, out, &result)
	assert.True(t, result.AllDeterministic)
	require.Equal(t, 2, result.TotalRuns)
	assert.Equal(t, ir.ModeFixed, result.Runs[0].Mode)
	assert.Equal(t, int64(11687500), result.Runs[0].Replayed)
	assert.Equal(t, ir.ModePeriod, result.Runs[1].Mode)
	assert.Equal(t, int64(8), result.Runs[1].Replayed)
	for _, run := range result.Runs {
		assert.True(t, run.HashMatches)
		assert.Empty(t, run.Diff)
	}
}

func TestReplayDetectsTamperedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pulse.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	decls := testutil.MustDecls(t, testutil.TwoToggles)
	hash, err := ir.NetworkHash(decls)
	require.NoError(t, err)
	rec := &ir.RunRecord{
		ID:          "run-1",
		ResultKey:   "key-1",
		NetworkHash: hash,
		Network:     decls,
		Mode:        ir.ModeFixed,
		Trigger:     ir.Broadcaster,
		Presses:     2,
		Counts:      ir.Counts{High: 5, Low: 8},
		Answer:      40,
	}
	require.NoError(t, st.WriteRun(ctx, rec))
	require.NoError(t, st.Close())

	out, _, err := execute(t, "replay", "--db", dbPath, "--run", "run-1", "-v")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run 1: run-1 (fixed)")
	assert.Contains(t, out, "recorded 40, replayed 45")
	assert.Contains(t, out, "Diff (-recorded +replayed)")
}

func TestReplayUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pulse.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, _, err = execute(t, "replay", "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}
