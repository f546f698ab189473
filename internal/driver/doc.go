// Package driver runs an engine through many ticks to answer questions
// about a network.
//
// Three drivers are provided:
//
//   - Aggregate: press the trigger n times and sum the pulse counts
//   - FirstOccurrence: press until a node first emits a given polarity
//     and return that 1-based press index
//   - ComposePeriods: measure several first occurrences independently, in
//     parallel on cloned networks, and combine them with LCM
//
// ComposePeriods is only correct when every target's emission is exactly
// periodic from the first press, which holds for the counter structures it
// is meant for. The precondition is not checked.
package driver
