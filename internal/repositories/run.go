package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/shared"
)

// Run is one persisted analysis run with per-run aggregates.
type Run struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Username  string    `json:"username"`
	Months    int       `json:"months"`
	Perfect   int       `json:"perfect"`
	Missing   int       `json:"missing"`
	Extra     int       `json:"extra"`
	CreatedAt time.Time `json:"created_at"`
	Diffs     []RunDiff `json:"diffs,omitempty"`
}

// RunDiff is one month's summary within a persisted run. Month is stored
// in YYYY-MM form.
type RunDiff struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	Month         string `json:"month"`
	PlaylistID    string `json:"playlist_id,omitempty"`
	PlaylistName  string `json:"playlist_name,omitempty"`
	LikedCount    int    `json:"liked_count"`
	PlaylistCount int    `json:"playlist_count"`
	MissingCount  int    `json:"missing_count"`
	ExtraCount    int    `json:"extra_count"`
	Perfect       bool   `json:"perfect"`
}

// RunRepository persists analysis runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// FromResults summarizes analysis results into a Run ready for [RunRepository.Create].
func FromResults(results *models.AnalysisResults) *Run {
	run := &Run{Username: results.Username}

	for _, ym := range results.SortedMonths() {
		diff := results.Diffs[ym]

		rd := RunDiff{
			Month:         ym.String(),
			LikedCount:    len(diff.LikedSongs),
			PlaylistCount: len(diff.PlaylistSongs),
			MissingCount:  len(diff.LikedOnly),
			ExtraCount:    len(diff.PlaylistOnly),
			Perfect:       diff.IsPerfectMatch(),
		}
		if diff.Playlist != nil {
			rd.PlaylistID = diff.Playlist.ID
			rd.PlaylistName = diff.Playlist.Name
		}

		run.Months++
		if rd.Perfect {
			run.Perfect++
		}
		run.Missing += rd.MissingCount
		run.Extra += rd.ExtraCount
		run.Diffs = append(run.Diffs, rd)
	}

	return run
}

// Create inserts a run and its diff summaries with generated IDs and sequence.
func (r *RunRepository) Create(run *Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence
	run.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO runs (id, sequence, username, months, perfect, missing, extra, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, run.ID, run.Sequence, run.Username, run.Months, run.Perfect, run.Missing, run.Extra, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	diffQuery := `
		INSERT INTO run_diffs (id, run_id, month, playlist_id, playlist_name, liked_count, playlist_count, missing_count, extra_count, perfect)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range run.Diffs {
		rd := &run.Diffs[i]
		rd.ID = shared.GenerateID()
		rd.RunID = run.ID

		_, err = r.db.Exec(diffQuery, rd.ID, rd.RunID, rd.Month, rd.PlaylistID, rd.PlaylistName,
			rd.LikedCount, rd.PlaylistCount, rd.MissingCount, rd.ExtraCount, rd.Perfect)
		if err != nil {
			return fmt.Errorf("failed to insert run diff: %w", err)
		}
	}

	return nil
}

// SaveResults summarizes and persists analysis results in one step.
func (r *RunRepository) SaveResults(results *models.AnalysisResults) (*Run, error) {
	run := FromResults(results)
	if err := r.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Get retrieves a run by ID together with its diff summaries.
func (r *RunRepository) Get(id string) (*Run, error) {
	query := `
		SELECT id, sequence, username, months, perfect, missing, extra, created_at
		FROM runs
		WHERE id = ?
	`

	run := &Run{}
	err := r.db.QueryRow(query, id).Scan(&run.ID, &run.Sequence, &run.Username,
		&run.Months, &run.Perfect, &run.Missing, &run.Extra, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	diffQuery := `
		SELECT id, run_id, month, playlist_id, playlist_name, liked_count, playlist_count, missing_count, extra_count, perfect
		FROM run_diffs
		WHERE run_id = ?
		ORDER BY month ASC
	`

	rows, err := r.db.Query(diffQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run diffs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rd RunDiff
		var playlistID, playlistName sql.NullString

		err := rows.Scan(&rd.ID, &rd.RunID, &rd.Month, &playlistID, &playlistName,
			&rd.LikedCount, &rd.PlaylistCount, &rd.MissingCount, &rd.ExtraCount, &rd.Perfect)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run diff: %w", err)
		}

		rd.PlaylistID = playlistID.String
		rd.PlaylistName = playlistName.String
		run.Diffs = append(run.Diffs, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return run, nil
}

// List retrieves runs in reverse chronological order, newest first,
// without their diff summaries. A limit <= 0 lists everything.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	query := `
		SELECT id, sequence, username, months, perfect, missing, extra, created_at
		FROM runs
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(&run.ID, &run.Sequence, &run.Username,
			&run.Months, &run.Perfect, &run.Missing, &run.Extra, &run.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}
