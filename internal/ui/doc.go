// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reviewing and repairing
// monthly playlists:
//  1. [MonthListView] : Browse analyzed months and their sync status
//  2. [DiffView] : Inspect one month's missing and extra songs
//  3. [ConfirmView] : Confirm adding the missing songs
//  4. [ApplyView] : Monitor real-time progress updates
//  5. [ResultView] : Display what was added and what failed
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the Analyzer, providing non-blocking status reporting during applies.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
