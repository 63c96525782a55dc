package services

import (
	"context"
	"time"

	"github.com/desertthunder/monthly/internal/models"
	"golang.org/x/oauth2"
)

// Library defines the interface for music library providers that expose a
// user's saved tracks and playlists.
type Library interface {
	// Authenticate performs OAuth or token authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*User, error)

	// SavedTracks retrieves a page of the user's saved tracks, most
	// recently added first.
	SavedTracks(ctx context.Context, limit, offset int) (*SavedTracksPage, error)

	// Playlists retrieves a page of the playlists visible to the user.
	Playlists(ctx context.Context, limit, offset int) (*PlaylistsPage, error)

	// PlaylistTracks retrieves a page of the tracks in a playlist.
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*PlaylistTracksPage, error)

	// AddToPlaylist appends tracks to a playlist by URI. At most 100 URIs
	// per call.
	AddToPlaylist(ctx context.Context, playlistID string, uris []string) error

	// CreatePlaylist creates a new playlist owned by the given user.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Library for providers authenticated through an
// OAuth2 authorization code flow.
type OAuthService interface {
	Library

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the provider's OAuth2 configuration.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// User represents the authenticated user.
type User struct {
	ID          string
	DisplayName string
}

// SavedTrack is a saved song together with the time it was added to the
// library.
type SavedTrack struct {
	AddedAt time.Time
	Song    models.Song
}

// SavedTracksPage is one page of a saved-tracks listing. Next is nil on
// the last page.
type SavedTracksPage struct {
	Items []SavedTrack
	Total int
	Next  *string
}

// PlaylistItem is a playlist together with its owner's user ID.
type PlaylistItem struct {
	Playlist models.Playlist
	OwnerID  string
}

// PlaylistsPage is one page of a playlist listing.
type PlaylistsPage struct {
	Items []PlaylistItem
	Total int
	Next  *string
}

// PlaylistTracksPage is one page of a playlist's tracks.
type PlaylistTracksPage struct {
	Items []models.Song
	Total int
	Next  *string
}
