// Package storage persists publication tasks: a name plus the cron expression
// produced by the schedule compiler.
//
// Drivers:
//   - "file":   JSON snapshot + JSON Lines journal, compacted periodically
//   - "sqlite": single SQLite file (modernc.org/sqlite, no cgo)
package storage
