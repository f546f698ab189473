// Package compiler turns network descriptions into node declarations.
//
// Three source formats are accepted:
//
//   - Text, one node per line: "broadcaster -> a, b", "%a -> b" for a
//     toggle, "&inv -> a" for a gate. Blank lines and "#" comments are
//     skipped.
//   - YAML: a top-level "nodes" list of {id, kind, destinations}.
//   - CUE: a "node" struct keyed by id, validated against an embedded schema.
//
// The compiler checks syntax and kinds only. Topology rules (duplicates,
// reserved sink names, unknown destinations) are enforced when the network
// is built, and reported in bulk by Validate.
package compiler
