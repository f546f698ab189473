// Package store provides SQLite-backed storage for pulse run logs.
//
// Every computed answer (a fixed-count aggregation, a first-occurrence
// search or a period composition) is appended as a run:
//   - runs: one row per answer, keyed by a UUIDv7 id
//   - run_periods: the per-target first occurrences of period runs
//
// # Critical Patterns
//
// Logical Ordering
//   - Runs are ordered by seq INTEGER assigned on write, never timestamps
//   - List queries use ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Content Keys
//   - result_key hashes network, mode, parameters and engine version
//   - Identical keys must yield identical answers, so a stored run doubles
//     as a cache entry and as a replay fixture
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
