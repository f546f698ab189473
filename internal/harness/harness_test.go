package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/testutil"
)

func TestRun_Counts(t *testing.T) {
	scenario := &Scenario{
		Name:        "counter",
		Description: "counter ring",
		Network:     testutil.Counter,
		Presses:     1000,
		Expect:      &ExpectCounts{High: 4000, Low: 8000},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(4000), result.Counts.High)
	assert.Empty(t, result.Trace)
}

func TestRun_CountMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "wrong totals",
		Network:     testutil.TwoToggles,
		Presses:     1,
		Expect:      &ExpectCounts{High: 4, Low: 4},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected high=4 low=4, got high=3 low=4")
}

func TestRun_TraceLimitedToTracePresses(t *testing.T) {
	scenario := &Scenario{
		Name:         "trace",
		Description:  "trace two presses of ten",
		Network:      testutil.TwoToggles,
		Presses:      10,
		TracePresses: 2,
		Expect:       &ExpectCounts{High: 25, Low: 45},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 14)
	assert.Equal(t, "button -low-> broadcaster", result.Trace[0].String())
	assert.Equal(t, int64(2), result.Trace[13].Tick)
	assert.Equal(t, int64(14), result.Trace[13].Seq)
}

func TestRun_StrictRejectsUndeclared(t *testing.T) {
	scenario := &Scenario{
		Name:        "strict",
		Description: "undeclared destination",
		Network:     "broadcaster -> a\n%a -> nowhere\n",
		Presses:     1,
		Strict:      true,
		Expect:      &ExpectCounts{},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build network")
}

func TestRun_BadNetwork(t *testing.T) {
	scenario := &Scenario{Name: "bad", Network: "broadcaster => a"}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse network")
}

func TestRun_UnknownTrigger(t *testing.T) {
	scenario := &Scenario{
		Name:    "trigger",
		Network: testutil.TwoToggles,
		Trigger: "missing",
		Presses: 1,
	}

	_, err := Run(scenario)
	require.Error(t, err)
}
