package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"evalpulse/internal/themes"
	"evalpulse/pkg/contracts/domain"
)

// FileMetadata is the evaluation metadata derived from a workbook file name.
type FileMetadata struct {
	Date time.Time
	// DateInferred is true when no date pattern matched and Date fell back
	// to the ingestion time. Inferred dates distort time-series ordering,
	// so the flag is carried onto every record from the file.
	DateInferred   bool
	Program        string
	EvaluationType domain.EvaluationType
}

// datePatterns are tried in order against the file name; the first match
// wins. Groups are year then month, day is fixed to the first of the month.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})\.(\d{2})`), // 2024.11
	regexp.MustCompile(`(\d{4})-(\d{2})`),  // 2024-11
	regexp.MustCompile(`(\d{4})(\d{2})`),   // 202411
}

// ExtractFileMetadata derives the evaluation date, program label and
// evaluation type from a workbook file name. now supplies the fallback date
// for file names without a recognizable date.
func ExtractFileMetadata(filename string, now time.Time) FileMetadata {
	meta := FileMetadata{
		Program:        themes.MatchProgram(filename),
		EvaluationType: evaluationType(filename),
	}

	if date, ok := dateFromFilename(filename); ok {
		meta.Date = date
		return meta
	}

	meta.Date = now
	meta.DateInferred = true
	return meta
}

// dateFromFilename tries each date pattern against the file name.
func dateFromFilename(filename string) (time.Time, bool) {
	for _, pattern := range datePatterns {
		match := pattern.FindStringSubmatch(filename)
		if match == nil {
			continue
		}

		year, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		month, err := strconv.Atoi(match[2])
		if err != nil || month < 1 || month > 12 {
			continue
		}

		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// evaluationType distinguishes the final evaluation round from interim ones
// by file-name substring.
func evaluationType(filename string) domain.EvaluationType {
	lower := strings.ToLower(filename)
	if strings.Contains(lower, "abschluss") || strings.Contains(lower, "final") {
		return domain.EvaluationFinal
	}
	return domain.EvaluationInterim
}
