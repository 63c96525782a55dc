// package repositories provides the persistence layer for analysis run
// history.
//
// Runs and their per-month diff summaries are written once after an
// analysis and read back by the history command. Sequence numbers provide
// human-readable ordering.
package repositories
