package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/monthly/internal/models"
)

// playlistPatterns cover the naming conventions monthly playlists show up
// under, in priority order. Each captures exactly two groups; which one is
// the year is decided afterwards by resolveGroups.
var playlistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[(\d{4})\]\s*([a-zA-Z]+)`),  // [2025] March
	regexp.MustCompile(`(?i)([a-zA-Z]+)\s+(\d{4})`),      // March 2025
	regexp.MustCompile(`(?i)(\d{4})[/\-]\s*([a-zA-Z]+)`), // 2025/March
	regexp.MustCompile(`(\d{1,2})[/\-\s]+(\d{4})`),       // 03-2025
	regexp.MustCompile(`(\d{4})[/\-](\d{1,2})`),          // 2025-03
}

// monthsByName maps lowercased full and three-letter English month names
// to their numbers. Built once, read-only after that.
var monthsByName = buildMonthTable()

func buildMonthTable() map[string]time.Month {
	table := make(map[string]time.Month, 24)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		table[name] = m
		table[name[:3]] = m
	}
	return table
}

// Extract pattern-matches a playlist name against the known monthly naming
// conventions and returns the month it names, if any.
//
// The first pattern that both structurally matches and resolves to a valid
// month wins. A structural match with an out-of-range month (e.g.
// "2025-13") does not short-circuit; later patterns still get a chance.
func Extract(playlistName string) (models.YearMonth, bool) {
	for _, re := range playlistPatterns {
		groups := re.FindStringSubmatch(playlistName)
		if groups == nil {
			continue
		}

		year, month, ok := resolveGroups(groups[1], groups[2])
		if !ok {
			continue
		}

		return models.YearMonth{Year: year, Month: month}, true
	}

	return models.YearMonth{}, false
}

// resolveGroups decides which captured group is the year and which is the
// month. The group that is exactly four digits is the year; the other is
// read as a month number or looked up as an English month name.
func resolveGroups(g1, g2 string) (int, time.Month, bool) {
	var yearStr, monthStr string

	switch {
	case len(g1) == 4 && isDigits(g1):
		yearStr, monthStr = g1, g2
	case len(g2) == 4 && isDigits(g2):
		yearStr, monthStr = g2, g1
	default:
		return 0, 0, false
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, false
	}

	var month time.Month
	if isDigits(monthStr) {
		n, err := strconv.Atoi(monthStr)
		if err != nil {
			return 0, 0, false
		}
		month = time.Month(n)
	} else {
		m, ok := monthsByName[strings.ToLower(monthStr)]
		if !ok {
			return 0, 0, false
		}
		month = m
	}

	if month < time.January || month > time.December {
		return 0, 0, false
	}

	return year, month, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
