package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/testutil"
)

func collect(signals *[]ir.Signal) Hooks {
	return Hooks{OnSignal: func(_, _ int64, sig ir.Signal) {
		*signals = append(*signals, sig)
	}}
}

func TestEngine_TwoTogglesFirstTick(t *testing.T) {
	var trace []ir.Signal
	eng := New(testutil.MustNetwork(t, testutil.TwoToggles), WithHooks(collect(&trace)))

	res, err := eng.Tick(ir.Broadcaster, nil)
	require.NoError(t, err)

	assert.Equal(t, ir.Counts{High: 3, Low: 4}, res.Counts)
	assert.Equal(t, int64(7), res.Enqueued)
	assert.False(t, res.Aborted)

	// c first sees a high while b is still remembered low, then both high.
	require.Len(t, trace, 7)
	assert.Equal(t, ir.Signal{Source: "c", Destination: "output", Polarity: ir.High}, trace[5])
	assert.Equal(t, ir.Signal{Source: "c", Destination: "output", Polarity: ir.Low}, trace[6])
}

func TestEngine_BreadthFirstOrder(t *testing.T) {
	var trace []ir.Signal
	eng := New(testutil.MustNetwork(t, testutil.Inverter), WithHooks(collect(&trace)))

	_, err := eng.Tick(ir.Broadcaster, nil)
	require.NoError(t, err)

	want := []ir.Signal{
		{Source: ir.Button, Destination: "broadcaster", Polarity: ir.Low},
		{Source: "broadcaster", Destination: "a", Polarity: ir.Low},
		{Source: "a", Destination: "inv", Polarity: ir.High},
		{Source: "a", Destination: "con", Polarity: ir.High},
		{Source: "inv", Destination: "b", Polarity: ir.Low},
		{Source: "con", Destination: "output", Polarity: ir.High},
		{Source: "b", Destination: "con", Polarity: ir.High},
		{Source: "con", Destination: "output", Polarity: ir.Low},
	}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_CountConservation(t *testing.T) {
	for name, text := range map[string]string{
		"two_toggles": testutil.TwoToggles,
		"counter":     testutil.Counter,
		"inverter":    testutil.Inverter,
		"chain":       testutil.ToggleChain(4),
	} {
		t.Run(name, func(t *testing.T) {
			eng := New(testutil.MustNetwork(t, text))
			for i := 0; i < 40; i++ {
				res, err := eng.Tick(ir.Broadcaster, nil)
				require.NoError(t, err)
				assert.Equal(t, res.Total(), res.Enqueued, "tick %d", i+1)
			}
			assert.Equal(t, int64(40), eng.Ticks())
		})
	}
}

func TestEngine_AbortCountsAbortingSignal(t *testing.T) {
	eng := New(testutil.MustNetwork(t, testutil.TwoToggles))

	res, err := eng.Tick(ir.Broadcaster, &ir.Condition{Node: "a", Polarity: ir.High})
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Equal(t, ir.Counts{High: 1, Low: 3}, res.Counts)
	assert.Equal(t, int64(5), res.Enqueued)
	assert.Greater(t, res.Enqueued, res.Total())

	// The aborting a->c signal was never delivered, so c still remembers both
	// inputs low. Leftover signals must not leak into the next tick.
	res, err = eng.Tick(ir.Broadcaster, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Counts{High: 2, Low: 5}, res.Counts)
	assert.False(t, res.Aborted)
}

func TestEngine_AbortMatchesSourceNotDestination(t *testing.T) {
	eng := New(testutil.MustNetwork(t, testutil.TwoToggles))

	// Nothing is ever emitted by "output", so the tick runs to completion.
	res, err := eng.Tick(ir.Broadcaster, &ir.Condition{Node: "output", Polarity: ir.Low})
	require.NoError(t, err)
	assert.False(t, res.Aborted)
	assert.Equal(t, ir.Counts{High: 3, Low: 4}, res.Counts)
}

func TestEngine_UnknownTrigger(t *testing.T) {
	eng := New(testutil.MustNetwork(t, testutil.TwoToggles))

	_, err := eng.Tick("nowhere", nil)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeUnknownTrigger))
	assert.Equal(t, int64(0), eng.Ticks())
}

func TestEngine_GateTriggerRejected(t *testing.T) {
	net := testutil.MustNetwork(t, "&g -> output\n")
	eng := New(net)

	_, err := eng.Tick("g", nil)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidTrigger))
	assert.False(t, HasCode(err, ErrCodeMissingGateInput))
	assert.Equal(t, int64(0), eng.Ticks())

	lazy := testutil.MustNetwork(t, "&g -> output\n", circuit.WithLazyGateInputs())
	_, err = RunTick(lazy, "g", nil)
	assert.True(t, HasCode(err, ErrCodeInvalidTrigger))
}

func TestEngine_MaxStepsExceeded(t *testing.T) {
	net := testutil.MustNetwork(t, "broadcaster -> loop\nloop -> loop\n")
	eng := New(net, WithMaxSteps(100))

	res, err := eng.Tick(ir.Broadcaster, nil)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeStepsExceeded))
	assert.True(t, IsStepsExceededError(err))
	assert.Equal(t, int64(100), res.Total())

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int64(1), se.Tick)
	assert.Equal(t, int64(100), se.Limit)
}

func TestEngine_MissingGateInput(t *testing.T) {
	sig := ir.Signal{Source: "stray", Destination: "g", Polarity: ir.High}
	err := deliveryError(3, sig, &circuit.MissingInputError{Gate: "g", Source: "stray"})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMissingGateInput))
	assert.True(t, circuit.IsMissingInputError(err))
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(3), re.Tick)
	assert.Equal(t, sig, *re.Signal)

	other := deliveryError(3, sig, errors.New("boom"))
	assert.False(t, IsRuntimeError(other))
	assert.Contains(t, other.Error(), "tick 3: deliver")
}

func TestEngine_SinksAreCountedNotDelivered(t *testing.T) {
	net := testutil.MustNetwork(t, "broadcaster -> rx, output, elsewhere\n")

	res, err := New(net).Tick(ir.Broadcaster, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Counts{Low: 4}, res.Counts)
	assert.Equal(t, []ir.NodeID{"elsewhere"}, net.Undeclared())
}

func TestEngine_Deterministic(t *testing.T) {
	run := func() []ir.Signal {
		var trace []ir.Signal
		eng := New(testutil.MustNetwork(t, testutil.Counters(2, 3)), WithHooks(collect(&trace)))
		for i := 0; i < 20; i++ {
			_, err := eng.Tick(ir.Broadcaster, nil)
			require.NoError(t, err)
		}
		return trace
	}
	assert.Equal(t, run(), run())
}

func TestEngine_ClockStampsEverySignal(t *testing.T) {
	var seqs []int64
	eng := New(testutil.MustNetwork(t, testutil.TwoToggles), WithHooks(Hooks{
		OnSignal: func(_, seq int64, _ ir.Signal) { seqs = append(seqs, seq) },
	}))

	for i := 0; i < 2; i++ {
		_, err := eng.Tick(ir.Broadcaster, nil)
		require.NoError(t, err)
	}
	require.Len(t, seqs, 14)
	for i, s := range seqs {
		assert.Equal(t, int64(i+1), s)
	}
	assert.Equal(t, int64(14), eng.Clock().Current())
}

func TestEngine_Reset(t *testing.T) {
	eng := New(testutil.MustNetwork(t, testutil.Inverter))
	initial := eng.Network().Fingerprint()

	_, err := eng.Tick(ir.Broadcaster, nil)
	require.NoError(t, err)
	require.NotEqual(t, initial, eng.Network().Fingerprint())

	eng.Reset()
	assert.Equal(t, initial, eng.Network().Fingerprint())
	assert.Equal(t, int64(0), eng.Ticks())
	assert.Equal(t, int64(0), eng.Clock().Current())
}

type fakeRecorder struct {
	ticks  int
	counts ir.Counts
}

func (f *fakeRecorder) ObserveTick(_ ir.NodeID, res TickResult) {
	f.ticks++
	f.counts = f.counts.Add(res.Counts)
}

func TestEngine_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	var ticked []int64
	eng := New(testutil.MustNetwork(t, testutil.Counter),
		WithRecorder(rec),
		WithHooks(Hooks{OnTick: func(tick int64, _ TickResult) { ticked = append(ticked, tick) }}),
	)

	for i := 0; i < 3; i++ {
		_, err := eng.Tick(ir.Broadcaster, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, rec.ticks)
	assert.Equal(t, ir.Counts{High: 12, Low: 24}, rec.counts)
	assert.Equal(t, []int64{1, 2, 3}, ticked)
}

func TestRunTick_PersistsState(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.TwoToggles)

	first, err := RunTick(net, ir.Broadcaster, nil)
	require.NoError(t, err)
	second, err := RunTick(net, ir.Broadcaster, nil)
	require.NoError(t, err)

	assert.Equal(t, ir.Counts{High: 3, Low: 4}, first.Counts)
	assert.Equal(t, ir.Counts{High: 2, Low: 5}, second.Counts)
}
