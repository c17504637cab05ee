// Package store provides SQLite-backed storage for search run logs.
//
// The store records:
//   - Runs: one experiment execution with its problem, parameters and seed
//   - Replicates: the best solution of each replicate, with its trace
//   - History: the best fitness after each improving generation
//
// The search engine itself never persists anything; this package is used
// by the CLI and the experiment harness.
//
// # Determinism
//
//   - Runs are ordered by seq (a per-database counter), never by timestamps
//   - Replicates are ordered by idx, history rows by generation
//   - Traces and parameters are stored as canonical JSON, so identical
//     solutions produce identical bytes and identical fingerprints
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
