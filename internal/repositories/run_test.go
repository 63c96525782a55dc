package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/shared"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleResults() *models.AnalysisResults {
	march := models.YearMonth{Year: 2025, Month: time.March}
	february := models.YearMonth{Year: 2025, Month: time.February}

	songA := models.Song{URI: "spotify:track:a", Name: "Alpha"}
	songB := models.Song{URI: "spotify:track:b", Name: "Beta"}

	playlist := &models.Playlist{ID: "pl1", Name: "[2025] March"}

	return &models.AnalysisResults{
		Username: "Test User",
		Diffs: map[models.YearMonth]models.Diff{
			march:    models.NewDiff(march, playlist, []models.Song{songA, songB}, []models.Song{songA}),
			february: models.NewDiff(february, nil, []models.Song{songB}, nil),
		},
	}
}

func TestNextSequence(t *testing.T) {
	db := testDB(t)

	first, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("expected sequence 1 then 2, got %d then %d", first, second)
	}
}

func TestFromResults(t *testing.T) {
	run := FromResults(sampleResults())

	if run.Username != "Test User" {
		t.Errorf("expected username, got %s", run.Username)
	}
	if run.Months != 2 {
		t.Errorf("expected 2 months, got %d", run.Months)
	}
	if run.Perfect != 0 {
		t.Errorf("expected 0 perfect months, got %d", run.Perfect)
	}
	if run.Missing != 2 {
		t.Errorf("expected 2 missing songs, got %d", run.Missing)
	}
	if run.Extra != 0 {
		t.Errorf("expected 0 extra songs, got %d", run.Extra)
	}

	if len(run.Diffs) != 2 {
		t.Fatalf("expected 2 diff summaries, got %d", len(run.Diffs))
	}

	t.Run("diffs are in chronological order", func(t *testing.T) {
		if run.Diffs[0].Month != "2025-02" || run.Diffs[1].Month != "2025-03" {
			t.Errorf("unexpected order: %s, %s", run.Diffs[0].Month, run.Diffs[1].Month)
		}
	})

	t.Run("playlist columns follow the match", func(t *testing.T) {
		if run.Diffs[0].PlaylistID != "" {
			t.Error("expected no playlist for the unmatched month")
		}
		if run.Diffs[1].PlaylistID != "pl1" || run.Diffs[1].PlaylistName != "[2025] March" {
			t.Errorf("unexpected playlist columns: %+v", run.Diffs[1])
		}
	})
}

func TestRunRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := testDB(t)
		repo := NewRunRepository(db)

		run := FromResults(sampleResults())
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID == "" || run.Sequence != 1 {
			t.Errorf("expected generated ID and sequence, got %q / %d", run.ID, run.Sequence)
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.Username != "Test User" || got.Months != 2 || got.Missing != 2 {
			t.Errorf("unexpected run: %+v", got)
		}
		if len(got.Diffs) != 2 {
			t.Fatalf("expected 2 diffs, got %d", len(got.Diffs))
		}
		if got.Diffs[1].PlaylistName != "[2025] March" {
			t.Errorf("unexpected diff: %+v", got.Diffs[1])
		}
	})

	t.Run("Get unknown run", func(t *testing.T) {
		db := testDB(t)
		repo := NewRunRepository(db)

		if _, err := repo.Get("missing"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("SaveResults", func(t *testing.T) {
		db := testDB(t)
		repo := NewRunRepository(db)

		run, err := repo.SaveResults(sampleResults())
		if err != nil {
			t.Fatalf("failed to save results: %v", err)
		}
		if run.ID == "" {
			t.Error("expected run to be persisted")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := testDB(t)
		repo := NewRunRepository(db)

		for range [3]struct{}{} {
			if _, err := repo.SaveResults(sampleResults()); err != nil {
				t.Fatalf("failed to save results: %v", err)
			}
		}

		runs, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}

		t.Run("newest first", func(t *testing.T) {
			if runs[0].Sequence != 3 || runs[2].Sequence != 1 {
				t.Errorf("unexpected order: %d, %d, %d", runs[0].Sequence, runs[1].Sequence, runs[2].Sequence)
			}
		})

		t.Run("respects the limit", func(t *testing.T) {
			limited, err := repo.List(2)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(limited) != 2 {
				t.Errorf("expected 2 runs, got %d", len(limited))
			}
		})
	})
}
