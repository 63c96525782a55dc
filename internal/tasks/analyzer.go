package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthly/internal/dates"
	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/services"
	"github.com/desertthunder/monthly/internal/shared"
)

const defaultBatchSize = 50

// Analyzer orchestrates the analysis of liked songs against monthly
// playlists for a single authenticated user.
type Analyzer struct {
	library        services.Library
	user           *services.User
	logger         *log.Logger
	playlistFormat string
	batchSize      int
}

// NewAnalyzer creates an Analyzer bound to the library's current user.
// playlistFormat is a Go time layout applied to the first day of a month
// when naming new playlists.
func NewAnalyzer(ctx context.Context, library services.Library, logger *log.Logger, playlistFormat string, batchSize int) (*Analyzer, error) {
	if library == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}

	user, err := library.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	// The service clamps page sizes; a larger stride would skip past
	// items the clamped pages never returned.
	if batchSize > services.MaxPageLimit {
		batchSize = services.MaxPageLimit
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "service", library.Name())

	return &Analyzer{
		library:        library,
		user:           user,
		logger:         logger,
		playlistFormat: playlistFormat,
		batchSize:      batchSize,
	}, nil
}

// Username returns the user's display name, falling back to the account ID.
func (a *Analyzer) Username() string {
	if a.user.DisplayName != "" {
		return a.user.DisplayName
	}
	return a.user.ID
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (a *Analyzer) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Analyze performs a complete analysis run. With no targets every month
// that has liked songs is analyzed; otherwise only the target months are.
func (a *Analyzer) Analyze(ctx context.Context, targets []models.YearMonth, progress chan<- ProgressUpdate) (*models.AnalysisResults, error) {
	songsByMonth, err := a.LikedSongsByMonth(ctx, targets, progress)
	if err != nil {
		return nil, err
	}

	results := &models.AnalysisResults{
		SongsByMonth:     songsByMonth,
		MonthlyPlaylists: map[models.YearMonth]models.Playlist{},
		Diffs:            map[models.YearMonth]models.Diff{},
		TargetMonths:     targets,
		Username:         a.Username(),
	}

	if len(songsByMonth) == 0 {
		a.logger.Warn("no liked songs found for the requested months")
		return results, nil
	}

	playlists, err := a.UserPlaylists(ctx, progress)
	if err != nil {
		return nil, err
	}

	results.MonthlyPlaylists = a.MonthlyPlaylists(playlists)

	step := 0
	for ym, liked := range songsByMonth {
		step++
		a.sendProgress(progress, compareUpdate(step, len(songsByMonth), ym))

		var diff models.Diff
		if playlist, ok := results.MonthlyPlaylists[ym]; ok {
			playlistSongs, err := a.PlaylistTracks(ctx, playlist.ID, progress, ym, playlist.Name)
			if err != nil {
				return nil, err
			}
			diff = models.NewDiff(ym, &playlist, liked, playlistSongs)
		} else {
			diff = models.NewDiff(ym, nil, liked, nil)
		}

		results.Diffs[ym] = diff
	}

	a.logger.Info("analysis complete",
		"user", results.Username,
		"months", len(results.Diffs),
		"in_sync", results.InSync())

	return results, nil
}

// LikedSongsByMonth fetches the user's liked songs, newest first, and
// groups them by the month they were added.
//
// When targets are given, pagination stops early: items older than the
// oldest target month break the page scan, and fetching ends once a whole
// page is older than that cutoff with no in-range item.
func (a *Analyzer) LikedSongsByMonth(ctx context.Context, targets []models.YearMonth, progress chan<- ProgressUpdate) (map[models.YearMonth][]models.Song, error) {
	songsByMonth := make(map[models.YearMonth][]models.Song)

	oldest, hasOldest := oldestTargetDate(targets)
	fetched := 0
	offset := 0

	for {
		page, err := a.library.SavedTracks(ctx, a.batchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch liked songs: %w", err)
		}

		fetched += len(page.Items)
		a.sendProgress(progress, fetchLikedUpdate(fetched, page.Total))

		shouldContinue := false
		foundInPage := false

		for _, item := range page.Items {
			if hasOldest && item.AddedAt.Before(oldest) {
				break
			}

			ym := models.YearMonthOf(item.AddedAt)
			if len(targets) > 0 && !containsMonth(targets, ym) {
				if hasOldest && !item.AddedAt.Before(oldest) {
					shouldContinue = true
				}
				continue
			}

			songsByMonth[ym] = append(songsByMonth[ym], item.Song)
			foundInPage = true
			shouldContinue = true
		}

		if hasOldest && !shouldContinue && !foundInPage {
			break
		}

		if page.Next == nil {
			break
		}
		offset += a.batchSize
	}

	return songsByMonth, nil
}

// UserPlaylists fetches all playlists owned by the current user.
func (a *Analyzer) UserPlaylists(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		page, err := a.library.Playlists(ctx, a.batchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlists: %w", err)
		}

		a.sendProgress(progress, fetchPlaylistsUpdate(offset+len(page.Items), page.Total))

		for _, item := range page.Items {
			if item.OwnerID == a.user.ID {
				playlists = append(playlists, item.Playlist)
			}
		}

		if page.Next == nil {
			break
		}
		offset += a.batchSize
	}

	return playlists, nil
}

// PlaylistTracks fetches all tracks of a playlist.
func (a *Analyzer) PlaylistTracks(ctx context.Context, playlistID string, progress chan<- ProgressUpdate, ym models.YearMonth, name string) ([]models.Song, error) {
	a.sendProgress(progress, fetchPlaylistTracksUpdate(ym, name))

	var songs []models.Song
	offset := 0

	for {
		page, err := a.library.PlaylistTracks(ctx, playlistID, a.batchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist tracks: %w", err)
		}

		songs = append(songs, page.Items...)

		if page.Next == nil {
			break
		}
		offset += a.batchSize
	}

	return songs, nil
}

// MonthlyPlaylists picks out the playlists whose names carry a month.
// When several names resolve to the same month the last one encountered
// wins.
func (a *Analyzer) MonthlyPlaylists(playlists []models.Playlist) map[models.YearMonth]models.Playlist {
	monthly := make(map[models.YearMonth]models.Playlist)

	for _, playlist := range playlists {
		if ym, ok := dates.Extract(playlist.Name); ok {
			if prev, exists := monthly[ym]; exists {
				a.logger.Debug("duplicate monthly playlist",
					"month", ym, "kept", playlist.Name, "replaced", prev.Name)
			}
			monthly[ym] = playlist
		}
	}

	return monthly
}

// oldestTargetDate returns the first day of the earliest target month.
func oldestTargetDate(targets []models.YearMonth) (time.Time, bool) {
	if len(targets) == 0 {
		return time.Time{}, false
	}

	oldest := targets[0]
	for _, ym := range targets[1:] {
		if ym.Before(oldest) {
			oldest = ym
		}
	}
	return oldest.Date(), true
}

func containsMonth(months []models.YearMonth, ym models.YearMonth) bool {
	for _, m := range months {
		if m == ym {
			return true
		}
	}
	return false
}
