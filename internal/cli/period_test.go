package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/testutil"
)

func TestPeriodSink(t *testing.T) {
	path := writeNetwork(t, "counters.txt", testutil.Counters(1, 2, 3))

	out, _, err := execute(t, "period", "--format", "json", "--sink", "rx", path)
	require.NoError(t, err)

	var result PeriodResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []PeriodTarget{
		{Condition: "g1:high", FirstOccurrence: 2},
		{Condition: "g2:high", FirstOccurrence: 4},
		{Condition: "g3:high", FirstOccurrence: 8},
	}, result.Targets)
	assert.Equal(t, int64(8), result.Answer)
}

func TestPeriodExplicitNodes(t *testing.T) {
	path := writeNetwork(t, "counters.txt", testutil.Counters(1, 2, 3))

	out, _, err := execute(t, "period", "--node", "hub:low", "--node", "g2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hub:low")
	assert.Contains(t, out, "first at press 8")
	assert.Contains(t, out, "first at press 4")
	assert.Contains(t, out, "answer: 8")
}

func TestPeriodRequiresExactlyOneTargetSource(t *testing.T) {
	path := writeNetwork(t, "counters.txt", testutil.Counters(1, 2))

	for _, args := range [][]string{
		{"period", path},
		{"period", "--sink", "rx", "--node", "g1", path},
	} {
		_, _, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	}
}

func TestPeriodSinkWithoutSingleGate(t *testing.T) {
	path := writeNetwork(t, "toggles.txt", testutil.TwoToggles)

	out, _, err := execute(t, "period", "--format", "json", "--sink", "rx", path)
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBadFlag, resp.Error.Code)
}

func TestPeriodSearchExhausted(t *testing.T) {
	// The gate output only ever emits low from a single always-low input.
	path := writeNetwork(t, "net.txt", "broadcaster -> g\n&g -> output\n")

	out, _, err := execute(t, "period", "--format", "json", "--node", "g:low", "--max-ticks", "50", path)
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSimulation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "not observed within 50 presses")
}

func TestPeriodRecordsRun(t *testing.T) {
	path := writeNetwork(t, "chain.txt", testutil.ToggleChain(3))
	dbPath := filepath.Join(t.TempDir(), "pulse.db")

	out, _, err := execute(t, "period", "--format", "json", "--db", dbPath, "--node", "g", path)
	require.NoError(t, err)
	var result PeriodResult
	resp := decodeResponse(t, out, &result)
	require.NotEmpty(t, resp.RunID)
	assert.Equal(t, int64(8), result.Answer)

	out, _, err = execute(t, "period", "--format", "json", "--db", dbPath, "--node", "g:high", path)
	require.NoError(t, err)
	var cached PeriodResult
	cachedResp := decodeResponse(t, out, &cached)
	assert.True(t, cached.Cached, "g and g:high are the same target")
	assert.Equal(t, resp.RunID, cachedResp.RunID)
	assert.Equal(t, result.Targets, cached.Targets)
}

func TestSinkTargets(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.Counters(2, 1))

	targets, err := SinkTargets(net, ir.SinkRx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Condition{
		{Node: "g1", Polarity: ir.High},
		{Node: "g2", Polarity: ir.High},
	}, targets)

	_, err = SinkTargets(net, "hub")
	require.Error(t, err, "hub is fed by two gates")
}

func TestParseTargets(t *testing.T) {
	targets, err := parseTargets([]string{"a", "b:low"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:high", "b:low"}, conditionStrings(targets))

	_, err = parseTargets([]string{"a:sideways"})
	require.Error(t, err)
}
