// Package engine implements the pulse propagation engine.
//
// The engine owns one circuit.Network and advances it one tick at a time.
// A tick injects a single low signal from the synthetic button into the
// trigger node and drains the resulting cascade.
//
// ARCHITECTURE:
//
// Single-Writer Tick Loop:
// A tick processes signals strictly in FIFO order on the calling goroutine.
// This ensures:
//   - Breadth-first delivery: every signal emitted at depth d is delivered
//     before any signal emitted at depth d+1
//   - Reproducible traces: identical networks produce identical sequences
//   - Simple reasoning about gate memory
//
// Signal Processing Flow:
//  1. Seed the queue with {button -> trigger, low}
//  2. Pop the front signal and stamp it with the next Clock seq
//  3. Count it by polarity
//  4. If it matches the abort condition, stop the tick
//  5. If its destination is a sink, drop it
//  6. Otherwise deliver it and append the node's outputs at the back
//
// The abort check happens after counting and before dispatch, and it looks
// at the signal's source, not its destination.
//
// Termination:
// The engine imposes no step budget by default. WithMaxSteps bounds the
// number of signals one tick may process and surfaces STEPS_EXCEEDED when
// the cascade does not converge.
package engine
