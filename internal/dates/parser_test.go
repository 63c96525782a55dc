package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/monthly/internal/models"
)

func TestParse(t *testing.T) {
	t.Run("Single dates", func(t *testing.T) {
		cases := []struct {
			input string
			want  models.YearMonth
		}{
			{"March 2025", models.YearMonth{Year: 2025, Month: time.March}},
			{"march 2024", models.YearMonth{Year: 2024, Month: time.March}},
			{"Oct 2023", models.YearMonth{Year: 2023, Month: time.October}},
			{"03-25", models.YearMonth{Year: 2025, Month: time.March}},
			{"2024-03", models.YearMonth{Year: 2024, Month: time.March}},
			{"2025/07", models.YearMonth{Year: 2025, Month: time.July}},
			{"12-2023", models.YearMonth{Year: 2023, Month: time.December}},
			{"  March 2025  ", models.YearMonth{Year: 2025, Month: time.March}},
		}

		for _, tc := range cases {
			t.Run(tc.input, func(t *testing.T) {
				months, err := Parse(tc.input)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(months) != 1 {
					t.Fatalf("expected exactly one month, got %d", len(months))
				}
				if months[0] != tc.want {
					t.Errorf("expected %s, got %s", tc.want, months[0])
				}
			})
		}
	})

	t.Run("Month always in range", func(t *testing.T) {
		inputs := []string{"January 2020", "12-2024", "2025-06", "07/25"}
		for _, input := range inputs {
			months, err := Parse(input)
			if err != nil {
				t.Fatalf("parse %q: %v", input, err)
			}
			for _, ym := range months {
				if ym.Month < time.January || ym.Month > time.December {
					t.Errorf("parse %q yielded month %d out of range", input, ym.Month)
				}
			}
		}
	})

	t.Run("Range within a year", func(t *testing.T) {
		months, err := Parse("January 2025 - March 2025")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []models.YearMonth{
			{Year: 2025, Month: time.January},
			{Year: 2025, Month: time.February},
			{Year: 2025, Month: time.March},
		}
		if len(months) != len(want) {
			t.Fatalf("expected %d months, got %d", len(want), len(months))
		}
		for i := range want {
			if months[i] != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], months[i])
			}
		}
	})

	t.Run("Range across a year boundary", func(t *testing.T) {
		months, err := Parse("Oct 2023 - Mar 2024")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(months) != 6 {
			t.Fatalf("expected 6 months, got %d", len(months))
		}
		if months[0] != (models.YearMonth{Year: 2023, Month: time.October}) {
			t.Errorf("range should start at 2023-10, got %s", months[0])
		}
		if months[5] != (models.YearMonth{Year: 2024, Month: time.March}) {
			t.Errorf("range should end at 2024-03, got %s", months[5])
		}
		for i := 1; i < len(months); i++ {
			if months[i] != months[i-1].Next() {
				t.Errorf("gap between %s and %s", months[i-1], months[i])
			}
		}
	})

	t.Run("Range with mixed formats", func(t *testing.T) {
		months, err := Parse("2023-10 - Mar 2024")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(months) != 6 {
			t.Errorf("expected 6 months, got %d", len(months))
		}
	})

	t.Run("Degenerate range", func(t *testing.T) {
		months, err := Parse("March 2025 - March 2025")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(months) != 1 {
			t.Fatalf("start == end should yield one month, got %d", len(months))
		}
		if months[0] != (models.YearMonth{Year: 2025, Month: time.March}) {
			t.Errorf("expected 2025-03, got %s", months[0])
		}
	})

	t.Run("Inverted range fails", func(t *testing.T) {
		_, err := Parse("March 2025 - January 2025")
		if err == nil {
			t.Fatal("expected error for inverted range")
		}

		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *ParseError, got %T", err)
		}
		if perr.Input != "March 2025 - January 2025" {
			t.Errorf("error should carry the whole range string, got %q", perr.Input)
		}
	})

	t.Run("Unparseable input fails", func(t *testing.T) {
		for _, input := range []string{"not a date", "", "the 42nd of Octember"} {
			_, err := Parse(input)
			if err == nil {
				t.Errorf("expected error for %q", input)
				continue
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("expected *ParseError for %q, got %T", input, err)
			}
		}
	})

	t.Run("Range with bad endpoint names the whole range", func(t *testing.T) {
		_, err := Parse("garbage - March 2025")
		if err == nil {
			t.Fatal("expected error")
		}

		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *ParseError, got %T", err)
		}
		if perr.Input != "garbage - March 2025" {
			t.Errorf("outer error should name the range, got %q", perr.Input)
		}

		var inner *ParseError
		if !errors.As(perr.Err, &inner) || inner.Input != "garbage" {
			t.Error("underlying cause should name the failing endpoint")
		}
	})
}
