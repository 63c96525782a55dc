package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/monthly/internal/services"
	"github.com/desertthunder/monthly/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	var library services.Library

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			library = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    library,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "monthly",
		Usage:    "Keep monthly playlists in sync with your Spotify liked songs",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrTimeout) {
			logger.Fatal("timed out")
		}
		logger.Fatalf("application error: %v", err)
	}
}
