package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/services"
	tu "github.com/desertthunder/monthly/internal/testing"
)

func savedTrack(uri, name string, added time.Time) services.SavedTrack {
	return services.SavedTrack{
		AddedAt: added,
		Song:    models.Song{URI: uri, Name: name, Artist: "Artist"},
	}
}

func playlistItem(id, name, ownerID string, count int) services.PlaylistItem {
	return services.PlaylistItem{
		Playlist: models.Playlist{ID: id, Name: name, TrackCount: count},
		OwnerID:  ownerID,
	}
}

func newTestAnalyzer(t *testing.T, lib *tu.MockLibrary) *Analyzer {
	t.Helper()

	analyzer, err := NewAnalyzer(context.Background(), lib, nil, "[2006] January", 50)
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	return analyzer
}

func TestNewAnalyzer(t *testing.T) {
	t.Run("fetches the current user", func(t *testing.T) {
		lib := &tu.MockLibrary{User: &services.User{ID: "user1", DisplayName: "Test User"}}

		analyzer := newTestAnalyzer(t, lib)
		if analyzer.Username() != "Test User" {
			t.Errorf("expected display name, got %s", analyzer.Username())
		}
	})

	t.Run("falls back to the account ID", func(t *testing.T) {
		lib := &tu.MockLibrary{User: &services.User{ID: "user1"}}

		analyzer := newTestAnalyzer(t, lib)
		if analyzer.Username() != "user1" {
			t.Errorf("expected account ID fallback, got %s", analyzer.Username())
		}
	})

	t.Run("propagates user fetch errors", func(t *testing.T) {
		lib := &tu.MockLibrary{UserErr: errors.New("boom")}

		_, err := NewAnalyzer(context.Background(), lib, nil, "", 50)
		if err == nil {
			t.Error("expected error when user fetch fails")
		}
	})

	t.Run("rejects a nil library", func(t *testing.T) {
		_, err := NewAnalyzer(context.Background(), nil, nil, "", 50)
		if err == nil {
			t.Error("expected error for nil library")
		}
	})

	t.Run("caps the batch size at the service page limit", func(t *testing.T) {
		analyzer, err := NewAnalyzer(context.Background(), &tu.MockLibrary{}, nil, "", 100)
		if err != nil {
			t.Fatalf("failed to create analyzer: %v", err)
		}
		if analyzer.batchSize != services.MaxPageLimit {
			t.Errorf("expected batch size %d, got %d", services.MaxPageLimit, analyzer.batchSize)
		}
	})
}

// cappedLibrary serves saved tracks from one flat slice, honoring the
// requested offset and clamping pages the way the real client does.
type cappedLibrary struct {
	tu.MockLibrary
	saved   []services.SavedTrack
	offsets []int
}

func (c *cappedLibrary) SavedTracks(ctx context.Context, limit, offset int) (*services.SavedTracksPage, error) {
	c.offsets = append(c.offsets, offset)
	if limit <= 0 || limit > services.MaxPageLimit {
		limit = services.MaxPageLimit
	}

	page := &services.SavedTracksPage{Total: len(c.saved)}
	if offset >= len(c.saved) {
		return page, nil
	}

	end := offset + limit
	if end > len(c.saved) {
		end = len(c.saved)
	}
	page.Items = c.saved[offset:end]
	if end < len(c.saved) {
		next := fmt.Sprintf("offset=%d", end)
		page.Next = &next
	}
	return page, nil
}

func TestLikedSongsByMonth(t *testing.T) {
	march := models.YearMonth{Year: 2025, Month: time.March}
	february := models.YearMonth{Year: 2025, Month: time.February}

	t.Run("groups songs by added month", func(t *testing.T) {
		next := "page2"
		lib := &tu.MockLibrary{
			SavedPages: []*services.SavedTracksPage{
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:1", "A", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)),
						savedTrack("spotify:track:2", "B", time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)),
					},
					Total: 3,
					Next:  &next,
				},
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:3", "C", time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC)),
					},
					Total: 3,
				},
			},
		}

		analyzer := newTestAnalyzer(t, lib)
		songs, err := analyzer.LikedSongsByMonth(context.Background(), nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(songs[march]) != 2 {
			t.Errorf("expected 2 songs in March, got %d", len(songs[march]))
		}
		if len(songs[february]) != 1 {
			t.Errorf("expected 1 song in February, got %d", len(songs[february]))
		}
	})

	t.Run("filters by target months", func(t *testing.T) {
		lib := &tu.MockLibrary{
			SavedPages: []*services.SavedTracksPage{
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:1", "A", time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)),
						savedTrack("spotify:track:2", "B", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)),
					},
					Total: 2,
				},
			},
		}

		analyzer := newTestAnalyzer(t, lib)
		songs, err := analyzer.LikedSongsByMonth(context.Background(), []models.YearMonth{march}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(songs) != 1 || len(songs[march]) != 1 {
			t.Errorf("expected only March songs, got %v", songs)
		}
	})

	t.Run("stops paginating past the oldest target", func(t *testing.T) {
		next1, next2 := "page2", "page3"
		lib := &tu.MockLibrary{
			SavedPages: []*services.SavedTracksPage{
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:1", "A", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)),
					},
					Total: 30,
					Next:  &next1,
				},
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:2", "B", time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)),
						savedTrack("spotify:track:3", "C", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)),
					},
					Total: 30,
					Next:  &next2,
				},
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:4", "D", time.Date(2024, 12, 10, 12, 0, 0, 0, time.UTC)),
					},
					Total: 30,
				},
			},
		}

		analyzer := newTestAnalyzer(t, lib)
		songs, err := analyzer.LikedSongsByMonth(context.Background(), []models.YearMonth{march}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(songs[march]) != 1 {
			t.Errorf("expected 1 March song, got %d", len(songs[march]))
		}
		if lib.SavedTrackCalls() != 2 {
			t.Errorf("expected pagination to stop after 2 pages, got %d", lib.SavedTrackCalls())
		}
	})

	t.Run("keeps paginating while in-range items remain", func(t *testing.T) {
		// A page mixing newer-than-target and in-range items must not end
		// the scan.
		next := "page2"
		lib := &tu.MockLibrary{
			SavedPages: []*services.SavedTracksPage{
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:1", "A", time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)),
					},
					Total: 2,
					Next:  &next,
				},
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:2", "B", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)),
					},
					Total: 2,
				},
			},
		}

		analyzer := newTestAnalyzer(t, lib)
		songs, err := analyzer.LikedSongsByMonth(context.Background(), []models.YearMonth{march}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(songs[march]) != 1 {
			t.Errorf("expected the second page to be scanned, got %v", songs)
		}
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		lib := &tu.MockLibrary{SavedErr: errors.New("boom")}

		analyzer := newTestAnalyzer(t, lib)
		if _, err := analyzer.LikedSongsByMonth(context.Background(), nil, nil); err == nil {
			t.Error("expected error to propagate")
		}
	})

	t.Run("fetches every track when the configured batch exceeds the page limit", func(t *testing.T) {
		lib := &cappedLibrary{}
		base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 120; i++ {
			uri := fmt.Sprintf("spotify:track:%d", i)
			lib.saved = append(lib.saved, savedTrack(uri, "Song", base.Add(time.Duration(i)*time.Minute)))
		}

		analyzer, err := NewAnalyzer(context.Background(), lib, nil, "", 100)
		if err != nil {
			t.Fatalf("failed to create analyzer: %v", err)
		}

		songs, err := analyzer.LikedSongsByMonth(context.Background(), nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(songs[march]) != 120 {
			t.Errorf("expected all 120 songs, got %d", len(songs[march]))
		}

		wantOffsets := []int{0, 50, 100}
		if len(lib.offsets) != len(wantOffsets) {
			t.Fatalf("expected offsets %v, got %v", wantOffsets, lib.offsets)
		}
		for i, offset := range wantOffsets {
			if lib.offsets[i] != offset {
				t.Errorf("expected offsets %v, got %v", wantOffsets, lib.offsets)
				break
			}
		}
	})
}

func TestUserPlaylists(t *testing.T) {
	t.Run("keeps only playlists owned by the user", func(t *testing.T) {
		lib := &tu.MockLibrary{
			User: &services.User{ID: "user1"},
			PlaylistPages: []*services.PlaylistsPage{
				{
					Items: []services.PlaylistItem{
						playlistItem("pl1", "[2025] March", "user1", 10),
						playlistItem("pl2", "Shared Mix", "someone_else", 30),
						playlistItem("pl3", "Roadtrip", "user1", 5),
					},
					Total: 3,
				},
			},
		}

		analyzer := newTestAnalyzer(t, lib)
		playlists, err := analyzer.UserPlaylists(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 2 {
			t.Fatalf("expected 2 owned playlists, got %d", len(playlists))
		}
		if playlists[0].ID != "pl1" || playlists[1].ID != "pl3" {
			t.Errorf("unexpected playlists: %+v", playlists)
		}
	})
}

func TestMonthlyPlaylists(t *testing.T) {
	analyzer := newTestAnalyzer(t, &tu.MockLibrary{})

	t.Run("matches by extracted month", func(t *testing.T) {
		monthly := analyzer.MonthlyPlaylists([]models.Playlist{
			{ID: "pl1", Name: "[2025] March"},
			{ID: "pl2", Name: "Roadtrip"},
			{ID: "pl3", Name: "February 2025"},
		})

		if len(monthly) != 2 {
			t.Fatalf("expected 2 monthly playlists, got %d", len(monthly))
		}
		if monthly[models.YearMonth{Year: 2025, Month: time.March}].ID != "pl1" {
			t.Error("expected March playlist to be matched")
		}
	})

	t.Run("last playlist wins on collision", func(t *testing.T) {
		monthly := analyzer.MonthlyPlaylists([]models.Playlist{
			{ID: "pl1", Name: "[2025] March"},
			{ID: "pl2", Name: "March 2025"},
		})

		if monthly[models.YearMonth{Year: 2025, Month: time.March}].ID != "pl2" {
			t.Error("expected the later playlist to win")
		}
	})
}

func TestAnalyze(t *testing.T) {
	march := models.YearMonth{Year: 2025, Month: time.March}
	february := models.YearMonth{Year: 2025, Month: time.February}

	t.Run("full run", func(t *testing.T) {
		lib := &tu.MockLibrary{
			User: &services.User{ID: "user1", DisplayName: "Test User"},
			SavedPages: []*services.SavedTracksPage{
				{
					Items: []services.SavedTrack{
						savedTrack("spotify:track:1", "A", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)),
						savedTrack("spotify:track:2", "B", time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)),
						savedTrack("spotify:track:3", "C", time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)),
					},
					Total: 3,
				},
			},
			PlaylistPages: []*services.PlaylistsPage{
				{
					Items: []services.PlaylistItem{
						playlistItem("pl1", "[2025] March", "user1", 1),
						playlistItem("pl2", "[2025] March", "someone_else", 99),
					},
					Total: 2,
				},
			},
			TrackPages: map[string][]*services.PlaylistTracksPage{
				"pl1": {
					{
						Items: []models.Song{
							{URI: "spotify:track:1", Name: "A"},
							{URI: "spotify:track:9", Name: "Z"},
						},
						Total: 2,
					},
				},
			},
		}

		analyzer := newTestAnalyzer(t, lib)
		progress := make(chan ProgressUpdate, 64)

		results, err := analyzer.Analyze(context.Background(), nil, progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		t.Run("carries the username", func(t *testing.T) {
			if results.Username != "Test User" {
				t.Errorf("expected username, got %s", results.Username)
			}
		})

		t.Run("diffs every month with liked songs", func(t *testing.T) {
			if len(results.Diffs) != 2 {
				t.Fatalf("expected 2 diffs, got %d", len(results.Diffs))
			}
		})

		t.Run("reconciles the matched month", func(t *testing.T) {
			diff := results.Diffs[march]
			if diff.Playlist == nil || diff.Playlist.ID != "pl1" {
				t.Fatalf("expected March diff to carry pl1, got %+v", diff.Playlist)
			}
			if len(diff.LikedOnly) != 1 || diff.LikedOnly[0].URI != "spotify:track:2" {
				t.Errorf("unexpected liked-only set: %+v", diff.LikedOnly)
			}
			if len(diff.PlaylistOnly) != 1 || diff.PlaylistOnly[0].URI != "spotify:track:9" {
				t.Errorf("unexpected playlist-only set: %+v", diff.PlaylistOnly)
			}
			if diff.Both != 1 {
				t.Errorf("expected 1 shared song, got %d", diff.Both)
			}
		})

		t.Run("months without a playlist get a nil-playlist diff", func(t *testing.T) {
			diff := results.Diffs[february]
			if diff.Playlist != nil {
				t.Errorf("expected nil playlist, got %+v", diff.Playlist)
			}
			if len(diff.LikedOnly) != 1 {
				t.Errorf("expected all liked songs missing, got %+v", diff.LikedOnly)
			}
		})

		t.Run("ignores playlists owned by other users", func(t *testing.T) {
			if results.MonthlyPlaylists[march].ID != "pl1" {
				t.Errorf("expected the owned playlist, got %s", results.MonthlyPlaylists[march].ID)
			}
		})

		t.Run("emits progress updates", func(t *testing.T) {
			if len(progress) == 0 {
				t.Error("expected progress updates on the channel")
			}
		})
	})

	t.Run("short-circuits when no liked songs match", func(t *testing.T) {
		lib := &tu.MockLibrary{
			SavedPages: []*services.SavedTracksPage{{Total: 0}},
		}

		analyzer := newTestAnalyzer(t, lib)
		results, err := analyzer.Analyze(context.Background(), nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(results.Diffs) != 0 {
			t.Errorf("expected no diffs, got %d", len(results.Diffs))
		}
		if lib.PlaylistCalls() != 0 {
			t.Error("expected playlists not to be fetched")
		}
		if !results.InSync() {
			t.Error("expected empty results to report in sync")
		}
	})
}
