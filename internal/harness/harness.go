package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/compiler"
	"github.com/roach88/pulse/internal/driver"
	"github.com/roach88/pulse/internal/engine"
	"github.com/roach88/pulse/internal/ir"
)

// DefaultSearchLimit bounds first_occurrence and composed_period searches.
const DefaultSearchLimit = 1 << 20

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and build a fresh network
//  2. Press the trigger Presses times, recording the first TracePresses
//  3. Compare aggregate counts against Expect
//  4. Evaluate assertions against the trace and final state
//
// An error is returned only when the scenario cannot be executed; failed
// expectations are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	decls, err := scenarioDecls(scenario)
	if err != nil {
		return nil, err
	}

	var opts []circuit.Option
	if scenario.Strict {
		opts = append(opts, circuit.WithStrictDestinations())
	}
	net, err := circuit.New(decls, opts...)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	result := NewResult()
	hooks := engine.Hooks{
		OnSignal: func(tick, seq int64, sig ir.Signal) {
			if tick <= scenario.TracePresses {
				result.addTrace(tick, seq, sig)
			}
		},
	}
	eng := engine.New(net, engine.WithHooks(hooks))

	counts, err := driver.Aggregate(ctx, eng, scenario.trigger(), scenario.Presses)
	if err != nil {
		return nil, fmt.Errorf("run scenario %s: %w", scenario.Name, err)
	}
	result.Counts = counts

	if exp := scenario.Expect; exp != nil {
		if counts.High != exp.High || counts.Low != exp.Low {
			result.AddError(fmt.Sprintf("counts: expected high=%d low=%d, got high=%d low=%d",
				exp.High, exp.Low, counts.High, counts.Low))
		}
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(ctx, a, result.Trace, net, scenario.trigger()); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	slog.Debug("scenario complete",
		"name", scenario.Name,
		"pass", result.Pass,
		"high", counts.High,
		"low", counts.Low,
		"traced", len(result.Trace),
	)
	return result, nil
}

func scenarioDecls(s *Scenario) ([]ir.NodeDecl, error) {
	if s.NetworkFile != "" {
		decls, err := compiler.LoadFile(s.NetworkFile)
		if err != nil {
			return nil, fmt.Errorf("load network: %w", err)
		}
		return decls, nil
	}
	decls, err := compiler.ParseText([]byte(s.Network))
	if err != nil {
		return nil, fmt.Errorf("parse network: %w", err)
	}
	return decls, nil
}
