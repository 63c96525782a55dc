// Package server implements the temporary local HTTP server that receives
// the OAuth2 authorization callback.
//
// When the user runs the auth command, a [CallbackServer] starts on
// localhost, handles exactly one callback on /callback, and shuts down
// after handing the token (or the failure) back through a channel.
//
// The [OAuthHandler] validates the state parameter (CSRF protection),
// exchanges the authorization code for tokens, and refuses repeated
// callbacks to prevent replay.
package server
