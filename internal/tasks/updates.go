package tasks

import (
	"fmt"

	"github.com/desertthunder/monthly/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLiked Phase = iota
	FetchPlaylists
	FetchPlaylistTracks
	Compare
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchLiked:
		return "fetch_liked"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchPlaylistTracks:
		return "fetch_playlist_tracks"
	case Compare:
		return "compare"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func fetchLikedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching liked songs (%d of %d)...", step, total),
	}
}

func fetchPlaylistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: "Fetching playlists...",
	}
}

func fetchPlaylistTracksUpdate(ym models.YearMonth, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylistTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching tracks for %s (%s)...", ym, name),
	}
}

func compareUpdate(step, total int, ym models.YearMonth) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Comparing %s...", step, total, ym),
	}
}

func createPlaylistUpdate(ym models.YearMonth, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created for %s: %s (ID: %s)", ym, pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(step, total int, ym models.YearMonth, batchSize int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d songs to %s...", step, total, batchSize, ym),
	}
}

func batchFailedUpdate(step, total int, ym models.YearMonth, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, ym, err),
	}
}
