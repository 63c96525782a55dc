package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/monthly/internal/repositories"
	"github.com/desertthunder/monthly/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList shows persisted analysis runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	configPath := r.resolveConfigPath(cmd)
	config := r.loadConfig(configPath)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		r.writePlain("No saved runs. Use 'monthly analyze --save' to record one.\n")
		return nil
	}

	r.writePlain("Found %d runs:\n\n", len(runs))
	for _, run := range runs {
		r.writePlain("#%d %s\n", run.Sequence, run.CreatedAt.Format("2006-01-02 15:04"))
		r.writePlain("   User: %s\n", run.Username)
		r.writePlain("   Months: %d (perfect %d, missing %d, extra %d)\n", run.Months, run.Perfect, run.Missing, run.Extra)
		r.writePlain("   ID: %s\n\n", run.ID)
	}

	return nil
}
