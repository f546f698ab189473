package driver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/testutil"
)

func gateTargets(n int) []ir.Condition {
	out := make([]ir.Condition, n)
	for i := range out {
		out[i] = ir.Condition{Node: ir.NodeID("g" + string(rune('1'+i))), Polarity: ir.High}
	}
	return out
}

func TestComposePeriods_Counters(t *testing.T) {
	defer goleak.VerifyNone(t)

	net := testutil.MustNetwork(t, testutil.Counters(1, 2, 3))
	comp, err := ComposePeriods(context.Background(), net, ir.Broadcaster, gateTargets(3), WithParallelism(2))
	require.NoError(t, err)

	require.Len(t, comp.Periods, 3)
	for i, want := range []int64{2, 4, 8} {
		assert.Equal(t, gateTargets(3)[i], comp.Periods[i].Condition)
		assert.Equal(t, want, comp.Periods[i].FirstOccurrence)
	}
	assert.Equal(t, int64(8), comp.Answer)
}

func TestComposePeriods_CoprimeResetCounters(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	targets := []ir.Condition{
		{Node: "c1_out", Polarity: ir.High},
		{Node: "c2_out", Polarity: ir.High},
		{Node: "c3_out", Polarity: ir.High},
	}
	net := testutil.MustNetwork(t, testutil.ResetCounters(3, 5, 7))
	comp, err := ComposePeriods(ctx, net, ir.Broadcaster, targets)
	require.NoError(t, err)

	require.Len(t, comp.Periods, 3)
	for i, want := range []int64{3, 5, 7} {
		assert.Equal(t, want, comp.Periods[i].FirstOccurrence)
	}
	assert.Equal(t, int64(3*5*7), comp.Answer)

	// The hub emits low only in a press where all three outputs were high.
	eng := engine.New(testutil.MustNetwork(t, testutil.ResetCounters(3, 5, 7)))
	simultaneous, err := FirstOccurrence(ctx, eng, ir.Broadcaster, ir.Condition{Node: "hub", Polarity: ir.Low}, WithMaxTicks(1000))
	require.NoError(t, err)
	assert.Equal(t, comp.Answer, simultaneous)
}

func TestComposePeriods_MatchesSimultaneousOccurrence(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.Counters(1, 2, 3))
	comp, err := ComposePeriods(context.Background(), net, ir.Broadcaster, gateTargets(3))
	require.NoError(t, err)

	// Brute force: the first press in which every gate emits high.
	var emitted map[ir.NodeID]bool
	eng := engine.New(testutil.MustNetwork(t, testutil.Counters(1, 2, 3)), engine.WithHooks(engine.Hooks{
		OnSignal: func(_, _ int64, sig ir.Signal) {
			if sig.Polarity == ir.High {
				emitted[sig.Source] = true
			}
		},
	}))
	var simultaneous int64
	for press := int64(1); press <= 64; press++ {
		emitted = make(map[ir.NodeID]bool)
		_, err := eng.Tick(ir.Broadcaster, nil)
		require.NoError(t, err)
		if emitted["g1"] && emitted["g2"] && emitted["g3"] {
			simultaneous = press
			break
		}
	}
	assert.Equal(t, simultaneous, comp.Answer)

	// The hub gate sends its low to rx on exactly that press.
	idx, err := Period(context.Background(), net, ir.Broadcaster, ir.Condition{Node: "hub", Polarity: ir.Low})
	require.NoError(t, err)
	assert.Equal(t, comp.Answer, idx)
}

func TestComposePeriods_FailureCancelsOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	net := testutil.MustNetwork(t, testutil.Counters(2, 3))
	targets := []ir.Condition{
		{Node: "g1", Polarity: ir.High},
		{Node: "nobody", Polarity: ir.High},
	}
	_, err := ComposePeriods(context.Background(), net, ir.Broadcaster, targets, WithMaxTicks(50))
	require.Error(t, err)
	assert.True(t, IsSearchExhaustedError(err))
	assert.Contains(t, err.Error(), "nobody:high")
}

func TestComposePeriods_NoTargets(t *testing.T) {
	_, err := ComposePeriods(context.Background(), testutil.MustNetwork(t, testutil.TwoToggles), ir.Broadcaster, nil)
	assert.Error(t, err)
}

func TestComposePeriods_SourceNetworkUnchanged(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.Counters(2, 2))
	before := net.Fingerprint()
	_, err := ComposePeriods(context.Background(), net, ir.Broadcaster, gateTargets(2))
	require.NoError(t, err)
	assert.Equal(t, before, net.Fingerprint())
}

func TestLCM_PairwiseCoprimeIsProduct(t *testing.T) {
	got, err := LCM(3733, 3793, 3917, 4057)
	require.NoError(t, err)
	assert.Equal(t, int64(3733)*3793*3917*4057, got)
}

func TestLCM_EqualsBruteForceSimultaneousIndex(t *testing.T) {
	periods := []int64{2, 3, 5, 7}
	var brute int64
	for n := int64(1); ; n++ {
		all := true
		for _, p := range periods {
			if n%p != 0 {
				all = false
				break
			}
		}
		if all {
			brute = n
			break
		}
	}

	got, err := LCM(periods...)
	require.NoError(t, err)
	assert.Equal(t, brute, got)
	assert.Equal(t, int64(210), got)
}

func TestLCM_Errors(t *testing.T) {
	_, err := LCM()
	assert.Error(t, err)

	_, err = LCM(4, 0)
	assert.Error(t, err)

	_, err = LCM(math.MaxInt64, 2)
	assert.True(t, errors.Is(err, ErrOverflow))
}

func TestGCD(t *testing.T) {
	assert.Equal(t, int64(6), GCD(12, 18))
	assert.Equal(t, int64(1), GCD(3733, 4057))
	assert.Equal(t, int64(5), GCD(5, 0))
}
