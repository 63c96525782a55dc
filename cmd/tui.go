package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthly/internal/shared"
	"github.com/desertthunder/monthly/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive diff browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	targets, err := parseTargets(cmd.Args().Slice())
	if err != nil {
		return err
	}

	configPath := r.resolveConfigPath(cmd)
	config := r.loadConfig(configPath)

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/monthly-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, log.DebugLevel)
	r.SetLogger(fileLogger)

	analyzer, err := r.buildAnalyzer(ctx, configPath, config, config.Analyzer.PlaylistFormat)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, analyzer, targets)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
