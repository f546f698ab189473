package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/driver"
	"github.com/roach88/pulse/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Recorded trace for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d/%d] %s\n", event.Tick, event.Seq, event)
		}
	}
	return buf.String()
}

// evaluateAssertion dispatches a to its checker. net is the network after
// all presses; searches measure on reset clones of it.
func evaluateAssertion(ctx context.Context, a Assertion, trace []TraceEvent, net *circuit.Network, trigger ir.NodeID) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertFirstOccurrence:
		return assertFirstOccurrence(ctx, net, trigger, a)
	case AssertComposedPeriod:
		return assertComposedPeriod(ctx, net, trigger, a)
	case AssertFinalState:
		return assertFinalState(net, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func normalizeSignal(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// assertTraceContains checks that the signal appears somewhere in the trace.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	want := normalizeSignal(a.Signal)
	for _, event := range trace {
		if event.String() == want {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the signals appear in the given order.
// Signals need not be consecutive; each is matched after the previous one.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for i, s := range a.Signals {
		want := normalizeSignal(s)
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.String() == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: strings.Join(a.Signals, " before "),
				Actual:   fmt.Sprintf("signal %d (%s) not found in order", i+1, want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks how many signals Node sent, optionally filtered
// by polarity.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Source != a.Node {
			continue
		}
		if a.Polarity != "" {
			p, _ := ir.ParsePolarity(a.Polarity)
			if event.Polarity != p {
				continue
			}
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d signals from %s", a.Count, describeFilter(a)),
			Actual:   fmt.Sprintf("%d signals", count),
			Trace:    trace,
		}
	}
	return nil
}

func describeFilter(a Assertion) string {
	if a.Polarity == "" {
		return a.Node
	}
	return a.Node + ":" + a.Polarity
}

func assertionCondition(a Assertion) ir.Condition {
	cond := ir.Condition{Node: ir.NodeID(a.Node), Polarity: ir.High}
	if a.Polarity != "" {
		cond.Polarity, _ = ir.ParsePolarity(a.Polarity)
	}
	return cond
}

// assertFirstOccurrence measures the press on which Node first sends the
// polarity, starting from the initial state.
func assertFirstOccurrence(ctx context.Context, net *circuit.Network, trigger ir.NodeID, a Assertion) error {
	cond := assertionCondition(a)
	got, err := driver.Period(ctx, net, trigger, cond, driver.WithMaxTicks(DefaultSearchLimit))
	if err != nil {
		return &AssertionError{
			Type:     AssertFirstOccurrence,
			Expected: fmt.Sprintf("%s first at press %d", cond, a.Index),
			Actual:   err.Error(),
		}
	}
	if got != a.Index {
		return &AssertionError{
			Type:     AssertFirstOccurrence,
			Expected: fmt.Sprintf("%s first at press %d", cond, a.Index),
			Actual:   fmt.Sprintf("press %d", got),
		}
	}
	return nil
}

// assertComposedPeriod composes the target periods and checks the LCM.
func assertComposedPeriod(ctx context.Context, net *circuit.Network, trigger ir.NodeID, a Assertion) error {
	targets := make([]ir.Condition, len(a.Targets))
	for i, t := range a.Targets {
		cond, err := ir.ParseCondition(t)
		if err != nil {
			return err
		}
		targets[i] = cond
	}
	comp, err := driver.ComposePeriods(ctx, net, trigger, targets, driver.WithMaxTicks(DefaultSearchLimit))
	if err != nil {
		return &AssertionError{
			Type:     AssertComposedPeriod,
			Expected: fmt.Sprintf("answer %d", a.Answer),
			Actual:   err.Error(),
		}
	}
	if comp.Answer != a.Answer {
		periods := make([]string, len(comp.Periods))
		for i, p := range comp.Periods {
			periods[i] = fmt.Sprintf("%s=%d", p.Condition, p.FirstOccurrence)
		}
		return &AssertionError{
			Type:     AssertComposedPeriod,
			Expected: fmt.Sprintf("answer %d", a.Answer),
			Actual:   fmt.Sprintf("answer %d (%s)", comp.Answer, strings.Join(periods, ", ")),
		}
	}
	return nil
}

// assertFinalState checks a toggle's state or a gate's remembered inputs
// after all presses.
func assertFinalState(net *circuit.Network, a Assertion) error {
	node, ok := net.Node(ir.NodeID(a.Node))
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("node %s", a.Node),
			Actual:   "not declared",
		}
	}

	if a.Active != nil {
		toggle, ok := node.Behavior.(*circuit.Toggle)
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s to be a toggle", a.Node),
				Actual:   string(node.Kind()),
			}
		}
		if toggle.Active != *a.Active {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s active=%t", a.Node, *a.Active),
				Actual:   fmt.Sprintf("active=%t", toggle.Active),
			}
		}
	}

	if len(a.Inputs) == 0 {
		return nil
	}
	gate, ok := node.Behavior.(*circuit.Gate)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s to be a gate", a.Node),
			Actual:   string(node.Kind()),
		}
	}

	sources := make([]string, 0, len(a.Inputs))
	for src := range a.Inputs {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var mismatches []string
	for _, src := range sources {
		want, _ := ir.ParsePolarity(a.Inputs[src])
		got, known := gate.Remembered(ir.NodeID(src))
		switch {
		case !known:
			mismatches = append(mismatches, fmt.Sprintf("%s: not an input", src))
		case got != want:
			mismatches = append(mismatches, fmt.Sprintf("%s: %s", src, got))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s inputs %v", a.Node, a.Inputs),
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}
