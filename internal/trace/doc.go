// Package trace records rewrite events to a SQLite database.
//
// One row per committed rewrite: which op was rewritten, inside which
// function, what replaced it, and where in the source description the
// op came from. Rows are grouped into runs, one run per conversion,
// keyed by a token minted by the store's TokenSource.
//
// Ordering uses logical sequence numbers, never timestamps, so the same
// conversion recorded twice produces the same rows. The default token
// source mints UUIDv7 tokens, which additionally sort by creation time
// across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package trace
