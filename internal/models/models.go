package models

import (
	"fmt"
	"sort"
	"time"
)

// YearMonth identifies a calendar month independent of day.
//
// The zero month is invalid; valid values carry 1 <= Month <= 12.
// YearMonth is comparable and safe to use as a map key.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the YearMonth of the given timestamp's calendar date.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String formats the month as zero-padded YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Before reports whether ym is chronologically before other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// After reports whether ym is chronologically after other.
func (ym YearMonth) After(other YearMonth) bool {
	return other.Before(ym)
}

// Next returns the following month, rolling December into January.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Date returns the first day of the month at midnight UTC.
func (ym YearMonth) Date() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Song represents a track in the user's library or in a playlist.
//
// The URI is the issuer-assigned stable identifier and the sole equality
// key; Name and Artist are display metadata. Artist holds the comma-joined
// names of all contributing artists in their original order.
type Song struct {
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// Playlist represents a user playlist.
//
// TrackCount is informational only; reconciliation always works from the
// playlist's actual fetched tracks.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
}

// Reconciliation is the set-difference between a month's liked songs and
// its playlist's songs.
type Reconciliation struct {
	LikedOnly    []Song // liked but absent from the playlist
	PlaylistOnly []Song // in the playlist but not liked
}

// IsMatch reports whether both difference sets are empty.
func (r Reconciliation) IsMatch() bool {
	return len(r.LikedOnly) == 0 && len(r.PlaylistOnly) == 0
}

// Reconcile computes the symmetric difference of two song lists keyed by URI.
//
// Works in two passes: a uri -> Song lookup is built per side (the last
// occurrence of a duplicated uri wins, matching the upstream behavior),
// then the uri set differences are resolved back through the lookups.
// Output order follows each side's lookup; callers needing a stable order
// sort the results themselves.
func Reconcile(liked, playlistSongs []Song) Reconciliation {
	likedByURI := songsByURI(liked)
	playlistByURI := songsByURI(playlistSongs)

	var rec Reconciliation
	for uri, song := range likedByURI {
		if _, ok := playlistByURI[uri]; !ok {
			rec.LikedOnly = append(rec.LikedOnly, song)
		}
	}
	for uri, song := range playlistByURI {
		if _, ok := likedByURI[uri]; !ok {
			rec.PlaylistOnly = append(rec.PlaylistOnly, song)
		}
	}
	return rec
}

func songsByURI(songs []Song) map[string]Song {
	m := make(map[string]Song, len(songs))
	for _, s := range songs {
		m[s.URI] = s
	}
	return m
}

// Diff holds one month's reconciliation together with the inputs it was
// computed from. Construct with [NewDiff]; a Diff is immutable after that.
type Diff struct {
	Date          YearMonth `json:"date"`
	Playlist      *Playlist `json:"playlist,omitempty"` // nil when no monthly playlist matched
	LikedSongs    []Song    `json:"liked_songs"`
	PlaylistSongs []Song    `json:"playlist_songs"`
	LikedOnly     []Song    `json:"liked_only"`
	PlaylistOnly  []Song    `json:"playlist_only"`
	Both          int       `json:"both"` // distinct uris present on both sides
}

// NewDiff reconciles a month's liked songs against its playlist's songs.
func NewDiff(date YearMonth, playlist *Playlist, liked, playlistSongs []Song) Diff {
	rec := Reconcile(liked, playlistSongs)
	return Diff{
		Date:          date,
		Playlist:      playlist,
		LikedSongs:    liked,
		PlaylistSongs: playlistSongs,
		LikedOnly:     rec.LikedOnly,
		PlaylistOnly:  rec.PlaylistOnly,
		Both:          len(songsByURI(liked)) - len(rec.LikedOnly),
	}
}

// IsPerfectMatch reports whether liked songs and playlist are in sync.
func (d Diff) IsPerfectMatch() bool {
	return len(d.LikedOnly) == 0 && len(d.PlaylistOnly) == 0
}

// AnalysisResults aggregates everything one analysis run produced.
// Assembled once by the analyzer and read-only thereafter.
type AnalysisResults struct {
	SongsByMonth     map[YearMonth][]Song   `json:"songs_by_month"`
	MonthlyPlaylists map[YearMonth]Playlist `json:"monthly_playlists"`
	Diffs            map[YearMonth]Diff     `json:"diffs"`
	TargetMonths     []YearMonth            `json:"target_months,omitempty"`
	Username         string                 `json:"username"`
}

// SortedMonths returns the diffed months in chronological order.
func (r *AnalysisResults) SortedMonths() []YearMonth {
	months := make([]YearMonth, 0, len(r.Diffs))
	for ym := range r.Diffs {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// InSync reports whether every diff is a perfect match.
func (r *AnalysisResults) InSync() bool {
	for _, d := range r.Diffs {
		if !d.IsPerfectMatch() {
			return false
		}
	}
	return true
}
