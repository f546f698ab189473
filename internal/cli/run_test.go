package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/testutil"
)

func TestRunInverter(t *testing.T) {
	path := writeNetwork(t, "inverter.txt", testutil.Inverter)

	out, _, err := execute(t, "run", "--format", "json", path)
	require.NoError(t, err)

	var result RunResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.RunID, "nothing is recorded without --db")
	assert.Equal(t, int64(1000), result.Presses)
	assert.Equal(t, int64(2750), result.High)
	assert.Equal(t, int64(4250), result.Low)
	assert.Equal(t, int64(11687500), result.Answer)
	assert.False(t, result.Cached)
}

func TestRunTextOutput(t *testing.T) {
	path := writeNetwork(t, "toggles.txt", testutil.TwoToggles)

	out, _, err := execute(t, "run", "-n", "1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "presses: 1 from broadcaster")
	assert.Contains(t, out, "high:    3")
	assert.Contains(t, out, "low:     4")
	assert.Contains(t, out, "answer:  12")
}

func TestRunCycleSkipMatchesPlainRun(t *testing.T) {
	path := writeNetwork(t, "counter.txt", testutil.Counter)

	for _, args := range [][]string{
		{"run", "--format", "json", path},
		{"run", "--format", "json", "--cycle-skip", path},
	} {
		out, _, err := execute(t, args...)
		require.NoError(t, err)
		var result RunResult
		decodeResponse(t, out, &result)
		assert.Equal(t, int64(4000), result.High, args)
		assert.Equal(t, int64(8000), result.Low, args)
		assert.Equal(t, int64(32000000), result.Answer, args)
	}
}

func TestRunZeroPresses(t *testing.T) {
	path := writeNetwork(t, "toggles.txt", testutil.TwoToggles)

	out, _, err := execute(t, "run", "--format", "json", "-n", "0", path)
	require.NoError(t, err)
	var result RunResult
	decodeResponse(t, out, &result)
	assert.Zero(t, result.High)
	assert.Zero(t, result.Low)
	assert.Zero(t, result.Answer)
}

func TestRunRecordsAndReusesResult(t *testing.T) {
	path := writeNetwork(t, "inverter.txt", testutil.Inverter)
	dbPath := filepath.Join(t.TempDir(), "pulse.db")

	out, _, err := execute(t, "run", "--format", "json", "--db", dbPath, path)
	require.NoError(t, err)
	var first RunResult
	firstResp := decodeResponse(t, out, &first)
	require.NotEmpty(t, firstResp.RunID)
	assert.False(t, first.Cached)

	out, _, err = execute(t, "run", "--format", "json", "--db", dbPath, path)
	require.NoError(t, err)
	var second RunResult
	secondResp := decodeResponse(t, out, &second)
	assert.True(t, second.Cached)
	assert.Equal(t, firstResp.RunID, secondResp.RunID)
	assert.Equal(t, first.Answer, second.Answer)

	// A different press count is a different result.
	out, _, err = execute(t, "run", "--format", "json", "--db", dbPath, "-n", "10", path)
	require.NoError(t, err)
	var third RunResult
	decodeResponse(t, out, &third)
	assert.False(t, third.Cached)
}

func TestRunMetricsFile(t *testing.T) {
	path := writeNetwork(t, "toggles.txt", testutil.TwoToggles)
	metricsPath := filepath.Join(t.TempDir(), "pulse.prom")

	_, _, err := execute(t, "run", "-n", "2", "--metrics-file", metricsPath, path)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pulse_")
}

func TestRunMissingFile(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "json", filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestRunParseError(t *testing.T) {
	path := writeNetwork(t, "bad.txt", "broadcaster -> a\n%a => b\n")

	out, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestRunUnknownTrigger(t *testing.T) {
	path := writeNetwork(t, "toggles.txt", testutil.TwoToggles)

	out, _, err := execute(t, "run", "--format", "json", "--trigger", "nope", path)
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSimulation, resp.Error.Code)
	assert.Equal(t, map[string]any{"runtime_code": "UNKNOWN_TRIGGER"}, resp.Error.Details)
}

func TestRunGateTrigger(t *testing.T) {
	path := writeNetwork(t, "gate.txt", "broadcaster -> g\n&g -> output\n")

	out, _, err := execute(t, "run", "--format", "json", "--trigger", "g", path)
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]any{"runtime_code": "INVALID_TRIGGER"}, resp.Error.Details)
}

func TestRunStepBudget(t *testing.T) {
	path := writeNetwork(t, "loop.txt", "broadcaster -> a\na -> a\n")

	out, _, err := execute(t, "run", "--format", "json", "--max-steps", "100", "-n", "1", path)
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]any{"runtime_code": "STEPS_EXCEEDED"}, resp.Error.Details)
}

func TestRunStrictRejectsUndeclaredDestination(t *testing.T) {
	path := writeNetwork(t, "net.txt", "broadcaster -> a\n%a -> nowhere\n")

	_, _, err := execute(t, "run", "-n", "1", path)
	require.NoError(t, err)

	out, _, err := execute(t, "run", "--format", "json", "--strict", "-n", "1", path)
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "W110", resp.Error.Code)
}

func TestRunNegativePresses(t *testing.T) {
	path := writeNetwork(t, "toggles.txt", testutil.TwoToggles)

	_, _, err := execute(t, "run", "-n", "-1", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
