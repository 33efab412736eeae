// Package schedule compiles operator-facing schedule shapes into 5-field cron
// expressions and back.
//
// The package is split into four pure parts:
//   - model:    Type (closed set of shapes) + Values (per-shape payload)
//   - generate: Type/Values -> cron string (total; falls back to 09:00 daily)
//   - classify: cron string -> best-matching Type/Values (ordered rule chain)
//   - describe: cron string -> short human-readable sentence
//
// Nothing here does I/O or holds state, so every function is safe for
// concurrent use. Next-run previews (robfig/cron) live in next.go.
package schedule
