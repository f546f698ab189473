// Package ir provides the shared data model for the pulse simulator.
//
// This package contains value types only: node declarations, signals,
// polarities, abort conditions, pulse counts and persisted run records,
// plus the canonical JSON encoding and content hashes derived from them.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Signals are immutable values; nodes never share them by reference
//   - NO float types anywhere; counts and indices are int64
//   - All JSON tags use snake_case
//   - Logical sequence numbers only, never wall-clock timestamps
package ir
