// Package testutil provides shared fixtures for pulse tests: reference
// network descriptions, generated networks and deterministic run ids.
package testutil

import (
	"fmt"
	"math/bits"
	"strings"
	"testing"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/compiler"
	"github.com/roach88/pulse/internal/ir"
)

// TwoToggles is a relay fanning out to two toggles that both feed a gate.
// One press yields 3 high and 4 low; the state repeats every two presses.
const TwoToggles = `broadcaster -> a, b
%a -> c
%b -> c
&c -> output
`

// Counter is a three-toggle ring closed through an inverter. Every press
// yields 4 high and 8 low, so 1000 presses give 4000 high and 8000 low.
const Counter = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

// Inverter cycles through four states. 1000 presses give 2750 high and
// 4250 low.
const Inverter = `broadcaster -> a
%a -> inv, con
&inv -> b
%b -> con
&con -> output
`

// ToggleChain returns a chain of k toggles whose last stage drives a
// single-input gate "g". The gate first emits high on press 2^k.
func ToggleChain(k int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "broadcaster -> t1\n")
	for i := 1; i < k; i++ {
		fmt.Fprintf(&b, "%%t%d -> t%d\n", i, i+1)
	}
	fmt.Fprintf(&b, "%%t%d -> g\n", k)
	b.WriteString("&g -> output\n")
	return b.String()
}

// Counters returns independent toggle chains of the given lengths. Chain i
// ends in gate "g<i>"; all gates feed the gate "hub", which drives rx. Gate
// g<i> emits high every 2^len(i) presses.
func Counters(lengths ...int) string {
	var b strings.Builder
	heads := make([]string, len(lengths))
	for i := range lengths {
		heads[i] = fmt.Sprintf("q%d_1", i+1)
	}
	fmt.Fprintf(&b, "broadcaster -> %s\n", strings.Join(heads, ", "))
	for i, n := range lengths {
		for j := 1; j < n; j++ {
			fmt.Fprintf(&b, "%%q%d_%d -> q%d_%d\n", i+1, j, i+1, j+1)
		}
		fmt.Fprintf(&b, "%%q%d_%d -> g%d\n", i+1, n, i+1)
		fmt.Fprintf(&b, "&g%d -> hub\n", i+1)
	}
	b.WriteString("&hub -> rx\n")
	return b.String()
}

// ResetCounters returns independent binary counters that wrap at the given
// periods (each at least 2). Counter i counts presses in toggles c<i>_0..;
// when the count reaches periods[i] its gate c<i>_reset clears the counter
// and drives the single-input gate c<i>_out high into "hub", which drives
// rx. c<i>_out emits high exactly on the multiples of periods[i].
func ResetCounters(periods ...int) string {
	var b strings.Builder
	heads := make([]string, len(periods))
	for i := range periods {
		heads[i] = fmt.Sprintf("c%d_0", i+1)
	}
	fmt.Fprintf(&b, "broadcaster -> %s\n", strings.Join(heads, ", "))
	for i, p := range periods {
		c := i + 1
		width := bits.Len(uint(p))
		var clears []string
		for j := 0; j < width; j++ {
			set := p>>j&1 == 1
			var dst []string
			if j+1 < width {
				dst = append(dst, fmt.Sprintf("c%d_%d", c, j+1))
			}
			if set {
				dst = append(dst, fmt.Sprintf("c%d_reset", c))
			}
			if j == 0 || !set {
				clears = append(clears, fmt.Sprintf("c%d_%d", c, j))
			}
			fmt.Fprintf(&b, "%%c%d_%d -> %s\n", c, j, strings.Join(dst, ", "))
		}
		clears = append(clears, fmt.Sprintf("c%d_out", c))
		fmt.Fprintf(&b, "&c%d_reset -> %s\n", c, strings.Join(clears, ", "))
		fmt.Fprintf(&b, "&c%d_out -> hub\n", c)
	}
	b.WriteString("&hub -> rx\n")
	return b.String()
}

// MustDecls parses a text description or fails the test.
func MustDecls(t testing.TB, text string) []ir.NodeDecl {
	t.Helper()
	decls, err := compiler.ParseText([]byte(text))
	if err != nil {
		t.Fatalf("parse network: %v", err)
	}
	return decls
}

// MustNetwork parses and builds a network or fails the test.
func MustNetwork(t testing.TB, text string, opts ...circuit.Option) *circuit.Network {
	t.Helper()
	net, err := circuit.New(MustDecls(t, text), opts...)
	if err != nil {
		t.Fatalf("build network: %v", err)
	}
	return net
}
