// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/services"
)

// MockLibrary is a test double for [services.Library]. Paged methods hand
// out their configured pages in call order; write methods record what was
// sent.
type MockLibrary struct {
	User    *services.User
	UserErr error

	SavedPages []*services.SavedTracksPage
	SavedErr   error

	PlaylistPages []*services.PlaylistsPage
	PlaylistsErr  error

	TrackPages map[string][]*services.PlaylistTracksPage
	TracksErr  error

	// Added records AddToPlaylist batches per playlist ID.
	Added  map[string][][]string
	AddErr error

	// Created records the names passed to CreatePlaylist.
	Created   []string
	CreateErr error

	savedCalls    int
	playlistCalls int
	trackCalls    map[string]int
}

func (m *MockLibrary) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockLibrary) CurrentUser(ctx context.Context) (*services.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User != nil {
		return m.User, nil
	}
	return &services.User{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockLibrary) SavedTracks(ctx context.Context, limit, offset int) (*services.SavedTracksPage, error) {
	if m.SavedErr != nil {
		return nil, m.SavedErr
	}
	if m.savedCalls >= len(m.SavedPages) {
		return &services.SavedTracksPage{}, nil
	}
	page := m.SavedPages[m.savedCalls]
	m.savedCalls++
	return page, nil
}

func (m *MockLibrary) Playlists(ctx context.Context, limit, offset int) (*services.PlaylistsPage, error) {
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	if m.playlistCalls >= len(m.PlaylistPages) {
		return &services.PlaylistsPage{}, nil
	}
	page := m.PlaylistPages[m.playlistCalls]
	m.playlistCalls++
	return page, nil
}

func (m *MockLibrary) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*services.PlaylistTracksPage, error) {
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	if m.trackCalls == nil {
		m.trackCalls = make(map[string]int)
	}
	pages := m.TrackPages[playlistID]
	call := m.trackCalls[playlistID]
	if call >= len(pages) {
		return &services.PlaylistTracksPage{}, nil
	}
	m.trackCalls[playlistID]++
	return pages[call], nil
}

func (m *MockLibrary) AddToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	if m.Added == nil {
		m.Added = make(map[string][][]string)
	}
	batch := append([]string(nil), uris...)
	m.Added[playlistID] = append(m.Added[playlistID], batch)
	return nil
}

func (m *MockLibrary) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created = append(m.Created, name)
	return &models.Playlist{
		ID:   fmt.Sprintf("created_%d", len(m.Created)),
		Name: name,
	}, nil
}

func (m *MockLibrary) Name() string { return "mock" }

// SavedTrackCalls reports how many saved-track pages were requested.
func (m *MockLibrary) SavedTrackCalls() int { return m.savedCalls }

// PlaylistCalls reports how many playlist pages were requested.
func (m *MockLibrary) PlaylistCalls() int { return m.playlistCalls }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
