package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/monthly/internal/dates"
	"github.com/desertthunder/monthly/internal/models"
)

// FailedBatch records one batch of songs that could not be added.
type FailedBatch struct {
	Date       models.YearMonth `json:"date"`
	PlaylistID string           `json:"playlist_id"`
	Size       int              `json:"size"`
	Err        error            `json:"-"`
}

// ApplyResult summarizes what an apply pass changed.
type ApplyResult struct {
	SongsAdded       int               `json:"songs_added"`
	PlaylistsCreated []models.Playlist `json:"playlists_created,omitempty"`
	FailedBatches    []FailedBatch     `json:"failed_batches,omitempty"`
}

// ApplyDiffs adds each diff's missing songs to its monthly playlist,
// creating the playlist first when none matched. Work proceeds in batches;
// a failed batch is logged and recorded but never aborts the rest of the
// run.
func (a *Analyzer) ApplyDiffs(ctx context.Context, diffs []models.Diff, progress chan<- ProgressUpdate) *ApplyResult {
	result := &ApplyResult{}

	totalSongs := 0
	for _, diff := range diffs {
		totalSongs += len(diff.LikedOnly)
	}
	if totalSongs == 0 {
		return result
	}

	step := 0
	for _, diff := range diffs {
		if len(diff.LikedOnly) == 0 {
			continue
		}

		playlistID := ""
		if diff.Playlist != nil {
			playlistID = diff.Playlist.ID
		} else {
			playlist, err := a.createPlaylistForMonth(ctx, diff.Date)
			if err != nil {
				a.logger.Error("failed to create playlist",
					"month", diff.Date, "songs", len(diff.LikedOnly), "error", err)
				result.FailedBatches = append(result.FailedBatches, FailedBatch{
					Date: diff.Date,
					Size: len(diff.LikedOnly),
					Err:  err,
				})
				continue
			}

			result.PlaylistsCreated = append(result.PlaylistsCreated, *playlist)
			a.sendProgress(progress, createPlaylistUpdate(diff.Date, playlist))
			playlistID = playlist.ID
		}

		uris := make([]string, 0, len(diff.LikedOnly))
		for _, song := range diff.LikedOnly {
			uris = append(uris, song.URI)
		}

		for start := 0; start < len(uris); start += a.batchSize {
			end := start + a.batchSize
			if end > len(uris) {
				end = len(uris)
			}
			batch := uris[start:end]

			step += len(batch)
			a.sendProgress(progress, addTracksUpdate(step, totalSongs, diff.Date, len(batch)))

			if err := a.library.AddToPlaylist(ctx, playlistID, batch); err != nil {
				a.logger.Error("failed to add batch",
					"month", diff.Date, "playlist", playlistID, "batch_size", len(batch), "error", err)
				a.sendProgress(progress, batchFailedUpdate(step, totalSongs, diff.Date, err))
				result.FailedBatches = append(result.FailedBatches, FailedBatch{
					Date:       diff.Date,
					PlaylistID: playlistID,
					Size:       len(batch),
					Err:        err,
				})
				continue
			}

			result.SongsAdded += len(batch)
		}
	}

	return result
}

// createPlaylistForMonth creates a private playlist for the month, named
// with the configured layout.
func (a *Analyzer) createPlaylistForMonth(ctx context.Context, ym models.YearMonth) (*models.Playlist, error) {
	name := a.PlaylistName(ym)
	description := fmt.Sprintf("Songs liked during %s", name)
	return a.library.CreatePlaylist(ctx, a.user.ID, name, description, false)
}

// PlaylistName renders the configured layout against the month's first
// day. A layout that does not round-trip back to the same month through
// name extraction would produce a playlist later runs cannot match, so
// the plain YYYY-MM form is used instead.
func (a *Analyzer) PlaylistName(ym models.YearMonth) string {
	if a.playlistFormat == "" {
		return ym.String()
	}

	name := ym.Date().Format(a.playlistFormat)
	if extracted, ok := dates.Extract(name); !ok || extracted != ym {
		return ym.String()
	}
	return name
}
