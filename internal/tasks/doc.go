// package tasks implements the analysis and repair operations over a music
// library.
//
// The core abstraction is Analyzer, which groups liked songs by the month
// they were added, matches monthly playlists by name, reconciles the two
// and applies the missing songs back. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks
