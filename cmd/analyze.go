package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/monthly/internal/dates"
	"github.com/desertthunder/monthly/internal/formatter"
	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/repositories"
	"github.com/desertthunder/monthly/internal/shared"
	"github.com/desertthunder/monthly/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Analyze compares liked songs against monthly playlists and optionally
// repairs the differences.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	targets, err := parseTargets(cmd.Args().Slice())
	if err != nil {
		return err
	}

	configPath := r.resolveConfigPath(cmd)
	config := r.loadConfig(configPath)

	format := cmd.String("format")
	if format == "" {
		format = config.Analyzer.PlaylistFormat
	}

	analyzer, err := r.buildAnalyzer(ctx, configPath, config, format)
	if err != nil {
		return err
	}

	r.logger.Info("analyzing liked songs", "user", analyzer.Username(), "targets", len(targets))

	results, err := analyzer.Analyze(ctx, targets, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.ExportToCSV(results)
		if err != nil {
			return fmt.Errorf("failed to export CSV: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV file: %w", err)
		}
		r.logger.Info("diffs exported", "file", path)
	}

	if cmd.Bool("save") {
		if err := r.saveRun(config, results); err != nil {
			r.logger.Warn("failed to save run", "error", err)
		}
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(results, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.writePlain("%s", formatter.FormatResults(results))
	}

	pending := pendingDiffs(results)
	if len(pending) == 0 {
		return nil
	}

	if !cmd.Bool("apply") {
		confirmed, err := r.confirm(ctx, "Would you like to add the missing songs to the playlists? (yes/no): ")
		if err != nil {
			return err
		}
		if !confirmed {
			r.writePlain("No changes made.\n")
			return nil
		}
	}

	return r.applyDiffs(ctx, analyzer, pending)
}

// parseTargets resolves the positional month expressions before anything
// touches the network. Duplicate months collapse to one.
func parseTargets(args []string) ([]models.YearMonth, error) {
	seen := map[models.YearMonth]bool{}
	var targets []models.YearMonth

	for _, arg := range args {
		months, err := dates.Parse(arg)
		if err != nil {
			return nil, err
		}
		for _, ym := range months {
			if !seen[ym] {
				seen[ym] = true
				targets = append(targets, ym)
			}
		}
	}

	return targets, nil
}

// pendingDiffs returns the out-of-sync diffs in chronological order.
func pendingDiffs(results *models.AnalysisResults) []models.Diff {
	var pending []models.Diff
	for _, ym := range results.SortedMonths() {
		if diff := results.Diffs[ym]; len(diff.LikedOnly) > 0 {
			pending = append(pending, diff)
		}
	}
	return pending
}

// confirm prompts on the runner's output and reads an answer from its
// input. Interrupting the command aborts without applying anything.
func (r *Runner) confirm(ctx context.Context, prompt string) (bool, error) {
	answers := make(chan string, 1)
	scanner := bufio.NewScanner(r.input)

	go func() {
		for scanner.Scan() {
			answers <- strings.ToLower(strings.TrimSpace(scanner.Text()))
			return
		}
		answers <- ""
	}()

	r.writePlain("\n%s", prompt)

	select {
	case answer := <-answers:
		return answer == "yes" || answer == "y", nil
	case <-ctx.Done():
		r.writePlain("\nAborted.\n")
		return false, nil
	}
}

// applyDiffs adds the missing songs, printing progress as batches land.
func (r *Runner) applyDiffs(ctx context.Context, analyzer *tasks.Analyzer, pending []models.Diff) error {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if update.Message != "" {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result := analyzer.ApplyDiffs(ctx, pending, progress)
	close(progress)
	<-done

	r.writePlainln("✓ Added %d songs", result.SongsAdded)
	for _, pl := range result.PlaylistsCreated {
		r.writePlain("✓ Created playlist: %s\n", pl.Name)
	}

	if len(result.FailedBatches) > 0 {
		r.writePlainln("⚠ %d batches failed:", len(result.FailedBatches))
		for _, batch := range result.FailedBatches {
			r.writePlain("  %s: %d songs (%v)\n", batch.Date, batch.Size, batch.Err)
		}
	}

	return nil
}

// saveRun persists the analysis results to the configured database.
func (r *Runner) saveRun(config *shared.Config, results *models.AnalysisResults) error {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	run, err := repositories.NewRunRepository(db).SaveResults(results)
	if err != nil {
		return err
	}

	r.logger.Info("run saved", "id", run.ID, "sequence", run.Sequence)
	return nil
}
