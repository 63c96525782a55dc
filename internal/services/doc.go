// package services defines interface Library for interacting with music
// library HTTP APIs.
//
// Spotify is the only implementation. Library is deliberately narrow:
// the analyzer only needs saved tracks, playlists, playlist membership
// and the two write operations.
package services
