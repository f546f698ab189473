package driver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
	"github.com/roach88/pulse/internal/testutil"
)

func TestFirstOccurrence_ToggleChainDoubles(t *testing.T) {
	for k := 1; k <= 8; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			eng := engine.New(testutil.MustNetwork(t, testutil.ToggleChain(k)))
			idx, err := FirstOccurrence(context.Background(), eng, ir.Broadcaster, ir.Condition{Node: "g", Polarity: ir.High})
			require.NoError(t, err)
			assert.Equal(t, int64(1)<<k, idx)
		})
	}
}

func TestFirstOccurrence_CountsFromCurrentState(t *testing.T) {
	eng := engine.New(testutil.MustNetwork(t, testutil.ToggleChain(2)))
	cond := ir.Condition{Node: "g", Polarity: ir.High}

	first, err := FirstOccurrence(context.Background(), eng, ir.Broadcaster, cond)
	require.NoError(t, err)
	second, err := FirstOccurrence(context.Background(), eng, ir.Broadcaster, cond)
	require.NoError(t, err)

	assert.Equal(t, int64(4), first)
	assert.Equal(t, int64(4), second)
	assert.Equal(t, int64(8), eng.Ticks())
}

func TestFirstOccurrence_Exhausted(t *testing.T) {
	eng := engine.New(testutil.MustNetwork(t, testutil.TwoToggles))

	_, err := FirstOccurrence(context.Background(), eng, ir.Broadcaster,
		ir.Condition{Node: "output", Polarity: ir.High}, WithMaxTicks(10))
	require.Error(t, err)
	assert.True(t, IsSearchExhaustedError(err))
	assert.Equal(t, int64(10), eng.Ticks())
}

func TestFirstOccurrence_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := engine.New(testutil.MustNetwork(t, testutil.TwoToggles))
	_, err := FirstOccurrence(ctx, eng, ir.Broadcaster, ir.Condition{Node: "never", Polarity: ir.High})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPeriod_LeavesNetworkUntouched(t *testing.T) {
	net := testutil.MustNetwork(t, testutil.ToggleChain(3))
	_, err := engine.RunTick(net, ir.Broadcaster, nil)
	require.NoError(t, err)
	before := net.Fingerprint()

	idx, err := Period(context.Background(), net, ir.Broadcaster, ir.Condition{Node: "g", Polarity: ir.High})
	require.NoError(t, err)
	assert.Equal(t, int64(8), idx)
	assert.Equal(t, before, net.Fingerprint())
}
