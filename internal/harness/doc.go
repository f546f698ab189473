// Package harness runs declarative pulse scenarios and compares their
// signal traces against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: inverter_first_press
//	description: "What this scenario validates"
//	network: |
//	  broadcaster -> a
//	  %a -> inv, con
//	  &inv -> b
//	  %b -> con
//	  &con -> output
//	trigger: broadcaster
//	presses: 1000
//	trace_presses: 1
//	expect:
//	  high: 2750
//	  low: 4250
//	assertions:
//	  - type: trace_contains
//	    signal: "a -high-> inv"
//	  - type: first_occurrence
//	    node: con
//	    polarity: low
//	    index: 1
//
// Either network (inline text) or network_file (text, YAML or CUE, relative
// to the scenario file) must be set. Supported assertion types are
// trace_contains, trace_order, trace_count, first_occurrence,
// composed_period and final_state.
//
// Each run builds a fresh network, so scenarios are independent and their
// traces are reproducible byte for byte.
package harness
