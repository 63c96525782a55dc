// Package models defines the domain entities for the monthly playlist analyzer.
//
// The package contains two categories of types:
//
// 1. Value types mirroring Spotify library data:
//   - [YearMonth] : A calendar month, the key everything is grouped by
//   - [Song] : A saved or playlisted track, identified by its URI
//   - [Playlist] : Basic playlist metadata
//
// 2. Computed results:
//   - [Reconciliation] : The pure set-difference between two song lists
//   - [Diff] : A month's reconciliation together with its inputs
//   - [AnalysisResults] : Everything one analysis run produced
//
// Songs compare equal iff their URIs are equal; names and artists are
// display metadata only. [Diff] and [AnalysisResults] are assembled once
// and never mutated afterwards.
package models
