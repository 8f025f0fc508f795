// Package repositories implements SQLite persistence for the download history.
//
// Key Implementations:
//   - [HistoryRepository] : one row per saved file, looked up by path for overwrites
//
// Sequence numbers provide stable, human-readable ordering (e.g., download #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
