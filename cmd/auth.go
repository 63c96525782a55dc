package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/monthly/internal/server"
	"github.com/desertthunder/monthly/internal/services"
	"github.com/desertthunder/monthly/internal/shared"
	"github.com/desertthunder/monthly/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// saves the exchanged tokens back to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := r.resolveConfigPath(cmd)
	config := r.loadConfig(configPath)

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrInvalidArgument, configPath)
	}

	spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}
	r.spotify = spotifyService

	token, err := r.doOAuth(ctx, config, spotifyService, "authorization")
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.config = config

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: monthly analyze\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local callback server.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	callbackServer := server.NewCallbackServer(config.Server, oauthSrv.GetOAuthConfig(), state, r.logger)

	r.logger.Infof("starting OAuth server for %s at %s:%d", prefix, config.Server.Host, config.Server.Port)
	callbackServer.Start()

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := callbackServer.Wait(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	return token, nil
}

// reauth runs the full authorization flow again and persists the new tokens.
func (r *Runner) reauth(ctx context.Context, configPath string, config *shared.Config, srv services.OAuthService) error {
	token, err := r.doOAuth(ctx, config, srv, "reauthorization")
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := srv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("✓ Reauthorization successful")
	r.writePlain("✓ New tokens saved to %s\n", configPath)

	return nil
}

// buildAnalyzer authenticates the library with the stored tokens and
// constructs an analyzer, rerunning authorization once when the token has
// expired.
func (r *Runner) buildAnalyzer(ctx context.Context, configPath string, config *shared.Config, format string) (*tasks.Analyzer, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized, run 'monthly auth' first", shared.ErrServiceUnavailable)
	}

	oauthSrv, supportsOAuth := r.spotify.(services.OAuthService)
	if supportsOAuth {
		token := config.Credentials.Spotify.Token()
		if token == nil {
			return nil, fmt.Errorf("%w: no stored tokens, run 'monthly auth' first", shared.ErrNotAuthenticated)
		}
		if err := oauthSrv.OAuthenticate(ctx, token); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}

		if refresher, ok := oauthSrv.(interface {
			SetTokenRefreshCallback(func(*oauth2.Token))
		}); ok {
			refresher.SetTokenRefreshCallback(func(refreshed *oauth2.Token) {
				if err := config.Credentials.Spotify.Update(refreshed); err != nil {
					return
				}
				if err := shared.SaveConfig(configPath, config); err != nil {
					r.logger.Warn("failed to persist refreshed token", "error", err)
				}
			})
		}
	}

	analyzer, err := tasks.NewAnalyzer(ctx, r.spotify, r.logger, format, config.Analyzer.BatchSize)
	if err == nil {
		return analyzer, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) || !supportsOAuth {
		return nil, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")
	if err := r.reauth(ctx, configPath, config, oauthSrv); err != nil {
		return nil, fmt.Errorf("reauthorization failed: %w", err)
	}

	return tasks.NewAnalyzer(ctx, r.spotify, r.logger, format, config.Analyzer.BatchSize)
}
