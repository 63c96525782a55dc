package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/monthly/internal/models"
)

var (
	_ list.Item = diffItem{}
	_ list.Item = songItem{}
)

// diffItem wraps [models.Diff] to implement [list.Item].
type diffItem struct {
	diff models.Diff
}

func (i diffItem) FilterValue() string { return i.diff.Date.String() }

func (i diffItem) Title() string {
	if i.diff.Playlist != nil {
		return fmt.Sprintf("%s • %s", i.diff.Date, i.diff.Playlist.Name)
	}
	return fmt.Sprintf("%s • no playlist", i.diff.Date)
}

func (i diffItem) Description() string {
	if i.diff.IsPerfectMatch() {
		return fmt.Sprintf("✓ in sync (%d songs)", len(i.diff.LikedSongs))
	}
	return fmt.Sprintf("%d missing, %d extra", len(i.diff.LikedOnly), len(i.diff.PlaylistOnly))
}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Name }
func (i songItem) Title() string       { return i.song.Name }
func (i songItem) Description() string { return i.song.Artist }
