// Package store provides SQLite-backed durable storage for compiled graphs
// and the coefficients computed from them.
//
// The store holds three tables:
//   - Graphs: canonical IR, content-addressed by ir.GraphID
//   - Runs: one evaluation request (kind, degree, order, point, params, time)
//   - Coefficients: one row per component, multi-index and time coefficient
//
// # Invariants
//
// Idempotent writes:
//   - Graphs are keyed by content hash; writing one twice is a no-op
//   - A run and its coefficients are written in one transaction
//
// Logical identity and time:
//   - Runs are ordered by seq INTEGER (engine.Clock), NEVER timestamps
//   - Run ids are UUIDv7 from engine.RunIDGenerator
//
// Deterministic query results:
//   - Run listings use ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Coefficients come back in (position, mi, coeff) order
//
// Exact floats:
//   - Values are stored as hex float TEXT, never REAL, so NaN and
//     infinities survive and a replay can compare bit for bit
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
