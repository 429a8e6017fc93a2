package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
)

// Best-effort numeric parsing used by all three extraction routines. Every
// parser returns an explicit ok flag instead of a zero default so callers can
// apply the skip-the-row semantics consistently.

var firstIntPattern = regexp.MustCompile(`\d+`)

// parseFloat parses a cell value as a float. Decimal commas and surrounding
// whitespace are tolerated; empty cells fail.
func parseFloat(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseBoundedFloat parses a cell value and additionally requires
// min <= v <= max (bounds inclusive). Out-of-bound values fail; they are
// never clamped.
func parseBoundedFloat(cell string, min, max float64) (float64, bool) {
	v, ok := parseFloat(cell)
	if !ok || v < min || v > max {
		return 0, false
	}
	return v, true
}

// parseInt parses a cell value as an integer, tolerating a float rendering
// of a whole number ("19.0").
func parseInt(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	if f, ok := parseFloat(s); ok && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

// firstInt extracts the first embedded integer from free text, e.g. the "19"
// in "19 von 19 Teilnehmenden haben diese Frage beantwortet".
func firstInt(text string) (int, bool) {
	match := firstIntPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return v, true
}

// cell returns the trimmed cell at column idx, or "" when the row is too
// short. Rows from the sheet reader are ragged, so every positional access
// goes through this accessor.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
