// package formatter renders analysis results for terminal display and
// exports them to CSV.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/monthly/internal/models"
)

// FormatDiff renders one month's diff as an indented block for terminal
// display. Song lists are sorted by name.
func FormatDiff(diff models.Diff) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("\nComparing %s:", diff.Date))
	lines = append(lines, strings.Repeat("-", 40))

	if diff.Playlist == nil {
		lines = append(lines, "  No matching monthly playlist found")
		lines = append(lines, fmt.Sprintf("  Liked songs: %d", len(diff.LikedSongs)))
		if len(diff.LikedOnly) > 0 {
			lines = append(lines, fmt.Sprintf("\n  + Songs that would need a new playlist (%d):", len(diff.LikedOnly)))
			lines = append(lines, songLines(diff.LikedOnly)...)
		}
		return strings.Join(lines, "\n")
	}

	lines = append(lines, fmt.Sprintf("  Liked songs: %d", len(diff.LikedSongs)))
	lines = append(lines, fmt.Sprintf("  Playlist songs: %d", len(diff.PlaylistSongs)))
	lines = append(lines, fmt.Sprintf("  In both: %d", diff.Both))

	if len(diff.LikedOnly) > 0 {
		lines = append(lines, fmt.Sprintf("\n  + Songs liked but NOT in playlist (%d):", len(diff.LikedOnly)))
		lines = append(lines, songLines(diff.LikedOnly)...)
	}

	if len(diff.PlaylistOnly) > 0 {
		lines = append(lines, fmt.Sprintf("\n  - Songs in playlist but NOT liked (%d):", len(diff.PlaylistOnly)))
		lines = append(lines, songLines(diff.PlaylistOnly)...)
	}

	if diff.IsPerfectMatch() {
		lines = append(lines, "  ✓ Perfect match! All songs are in sync.")
	}

	return strings.Join(lines, "\n")
}

// FormatSummary renders the run's closing summary.
func FormatSummary(results *models.AnalysisResults) string {
	var lines []string

	perfect, missing, extra := 0, 0, 0
	for _, ym := range results.SortedMonths() {
		diff := results.Diffs[ym]
		if diff.IsPerfectMatch() {
			perfect++
		}
		missing += len(diff.LikedOnly)
		extra += len(diff.PlaylistOnly)
	}

	lines = append(lines, fmt.Sprintf("\nAnalysis for %s", results.Username))
	lines = append(lines, strings.Repeat("=", 40))
	lines = append(lines, fmt.Sprintf("  Months analyzed: %d", len(results.Diffs)))
	lines = append(lines, fmt.Sprintf("  Perfect matches: %d", perfect))
	lines = append(lines, fmt.Sprintf("  Songs missing from playlists: %d", missing))
	lines = append(lines, fmt.Sprintf("  Playlist songs not liked: %d", extra))

	if results.InSync() && len(results.Diffs) > 0 {
		lines = append(lines, "  ✓ Everything is in sync.")
	}

	return strings.Join(lines, "\n")
}

// FormatResults renders every diff in chronological order followed by the
// summary.
func FormatResults(results *models.AnalysisResults) string {
	var parts []string
	for _, ym := range results.SortedMonths() {
		parts = append(parts, FormatDiff(results.Diffs[ym]))
	}
	parts = append(parts, FormatSummary(results))
	return strings.Join(parts, "\n")
}

// ExportToCSV converts results to CSV with one row per out-of-sync song.
// Columns: Month, Playlist, Category, Title, Artist, URI.
func ExportToCSV(results *models.AnalysisResults) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Month", "Playlist", "Category", "Title", "Artist", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ym := range results.SortedMonths() {
		diff := results.Diffs[ym]

		playlistName := ""
		if diff.Playlist != nil {
			playlistName = diff.Playlist.Name
		}

		writeRows := func(category string, songs []models.Song) error {
			for _, song := range sortedByName(songs) {
				record := []string{ym.String(), playlistName, category, song.Name, song.Artist, song.URI}
				if err := writer.Write(record); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		}

		if err := writeRows("liked_only", diff.LikedOnly); err != nil {
			return nil, err
		}
		if err := writeRows("playlist_only", diff.PlaylistOnly); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func songLines(songs []models.Song) []string {
	lines := make([]string, 0, len(songs))
	for _, song := range sortedByName(songs) {
		lines = append(lines, fmt.Sprintf("     • %s - %s", song.Name, song.Artist))
	}
	return lines
}

func sortedByName(songs []models.Song) []models.Song {
	sorted := append([]models.Song(nil), songs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}
