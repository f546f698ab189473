// Package circuit holds the stateful node network that the engine drives.
//
// A network is built once from parsed declarations and never changes shape
// afterwards. Each node is one of three behaviours:
//
//   - Relay: re-emits the inbound polarity to every destination
//   - Toggle: ignores high signals; a low signal flips it and it emits
//     its new state (on = high)
//   - Gate: remembers the last polarity from each of its inputs and emits
//     low only when every remembered input is high
//
// Gate inputs are discovered at construction time from the declarations
// that list the gate as a destination, and start low. Destinations named
// "output" or "rx" are sinks. Destinations that are neither declared nor
// reserved are treated as sinks too and reported by Undeclared, unless the
// network is built WithStrictDestinations.
//
// Networks are not safe for concurrent use. Independent searches that need
// parallelism operate on Clone copies.
package circuit
