package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/monthly/internal/models"
)

// rangeSeparator splits a range expression into its two endpoints.
// The surrounding spaces are load-bearing: "2024-03" is a single date.
const rangeSeparator = " - "

// ParseError reports a date expression that could not be interpreted,
// carrying the offending input and the underlying cause when one exists.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("could not parse %q as a month/year (try formats like \"March 2025\", \"03-25\", \"2024-03\")", e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// dateLayouts are probed in order by parseSingle. Month-name matching in
// the time package is case-insensitive, so "march 2024" parses with the
// "January 2006" layout. Two-digit years follow time.Parse's 69-rule
// ("03-25" resolves to March 2025).
var dateLayouts = []string{
	"January 2006",
	"Jan 2006",
	"January, 2006",
	"2006-1",
	"2006/1",
	"1-2006",
	"1/2006",
	"1-06",
	"1/06",
	"January 06",
	"Jan 06",
}

// Parse interprets a free-form month/year expression and returns the
// months it names, in chronological order.
//
// A single date yields exactly one month. A range "A - B" yields every
// month from A through B inclusive; both endpoints must parse and A must
// not be after B. All failures are *ParseError values.
func Parse(input string) ([]models.YearMonth, error) {
	if !strings.Contains(input, rangeSeparator) {
		ym, err := parseSingle(strings.TrimSpace(input))
		if err != nil {
			return nil, err
		}
		return []models.YearMonth{ym}, nil
	}

	parts := strings.SplitN(input, rangeSeparator, 2)

	start, err := parseSingle(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, &ParseError{Input: input, Err: err}
	}

	end, err := parseSingle(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, &ParseError{Input: input, Err: err}
	}

	if start.After(end) {
		return nil, &ParseError{
			Input: input,
			Err:   fmt.Errorf("start %s is after end %s", start, end),
		}
	}

	return expandRange(start, end), nil
}

// parseSingle resolves one month/year string, discarding any day component.
func parseSingle(input string) (models.YearMonth, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return models.YearMonthOf(t), nil
		}
	}
	return models.YearMonth{}, &ParseError{Input: input}
}

// expandRange emits every month from start through end inclusive.
// start == end yields a single-element list.
func expandRange(start, end models.YearMonth) []models.YearMonth {
	var months []models.YearMonth
	for cur := start; !cur.After(end); cur = cur.Next() {
		months = append(months, cur)
	}
	return months
}
