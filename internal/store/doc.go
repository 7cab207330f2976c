// Package store provides SQLite-backed history of suite runs.
//
// Every run is recorded once, keyed by its run id, together with the outcome
// of each check in declaration order:
//   - runs: suite name, start time and the summary counts
//   - check_results: one row per check of a run
//
// Writes are idempotent: recording a run id twice keeps the first copy.
// Listings are ordered newest first by start time, then run id.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
