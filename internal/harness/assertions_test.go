package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/testutil"
)

func inverterTrace(t *testing.T) []TraceEvent {
	t.Helper()
	result, err := Run(&Scenario{
		Name:         "inverter",
		Network:      testutil.Inverter,
		Presses:      1,
		TracePresses: 1,
	})
	require.NoError(t, err)
	return result.Trace
}

func TestAssertTraceContains(t *testing.T) {
	trace := inverterTrace(t)

	assert.NoError(t, assertTraceContains(trace, Assertion{Signal: "inv -low-> b"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Signal: "  inv   -low->  b "}))

	err := assertTraceContains(trace, Assertion{Signal: "inv -high-> b"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "Trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := inverterTrace(t)

	assert.NoError(t, assertTraceOrder(trace, Assertion{Signals: []string{
		"a -high-> inv", "con -high-> output", "con -low-> output",
	}}))

	err := assertTraceOrder(trace, Assertion{Signals: []string{
		"con -low-> output", "a -high-> inv",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signal 2")
}

func TestAssertTraceCount(t *testing.T) {
	trace := inverterTrace(t)

	assert.NoError(t, assertTraceCount(trace, Assertion{Node: "a", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Node: "con", Polarity: "low", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Node: "button", Count: 1}))
	assert.Error(t, assertTraceCount(trace, Assertion{Node: "a", Polarity: "low", Count: 1}))
}

func TestAssertFirstOccurrence(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.ToggleChain(3))
	ctx := context.Background()

	assert.NoError(t, assertFirstOccurrence(ctx, net, ir.Broadcaster, Assertion{Node: "g", Index: 8}))

	err := assertFirstOccurrence(ctx, net, ir.Broadcaster, Assertion{Node: "g", Index: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "press 8")
}

func TestAssertComposedPeriod(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.Counters(1, 2, 3))
	ctx := context.Background()
	targets := []string{"g1:high", "g2:high", "g3:high"}

	assert.NoError(t, assertComposedPeriod(ctx, net, ir.Broadcaster, Assertion{Targets: targets, Answer: 8}))

	err := assertComposedPeriod(ctx, net, ir.Broadcaster, Assertion{Targets: targets, Answer: 48})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "g1:high=2")
}

func TestAssertFinalState(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.TwoToggles)

	on, off := true, false
	assert.NoError(t, assertFinalState(net, Assertion{Node: "a", Active: &off}))
	assert.Error(t, assertFinalState(net, Assertion{Node: "a", Active: &on}))
	assert.NoError(t, assertFinalState(net, Assertion{Node: "c", Inputs: map[string]string{"a": "low", "b": "low"}}))

	err := assertFinalState(net, Assertion{Node: "c", Inputs: map[string]string{"z": "low"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "z: not an input")

	assert.Error(t, assertFinalState(net, Assertion{Node: "c", Active: &on}))
	assert.Error(t, assertFinalState(net, Assertion{Node: "a", Inputs: map[string]string{"x": "high"}}))
	assert.Error(t, assertFinalState(net, Assertion{Node: "ghost", Active: &on}))
}
