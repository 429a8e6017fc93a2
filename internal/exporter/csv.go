// Package exporter writes the normalized dataset as CSV and reads such
// exports back. The format is lossless for every record field so an exported
// dataset can be re-imported without touching the source workbooks.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "evalpulse/internal/errors"
	"evalpulse/internal/themes"
	"evalpulse/pkg/contracts/domain"
)

// utf8BOM keeps exported files readable in Excel, which misdetects plain
// UTF-8 CSV as Latin-1.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	dateLayout    = "2006-01-02"
	listSeparator = "|"
	pairSeparator = ":"
)

var header = []string{
	"date", "date_inferred", "program", "evaluation_type", "area",
	"question_id", "question_text", "question_type",
	"rating", "response_count", "distribution", "choices", "segment",
	"text_responses", "source_file", "source_sheet", "theme",
}

// WriteRecords writes the records as UTF-8 CSV with a BOM prefix.
func WriteRecords(w io.Writer, records []domain.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return apperrors.NewStorageError("failed to write BOM", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return apperrors.NewStorageError("failed to write CSV header", err)
	}

	for i := range records {
		if err := cw.Write(recordRow(&records[i])); err != nil {
			return apperrors.NewStorageError("failed to write CSV row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush CSV", err)
	}
	return nil
}

// WriteFile writes the records to a CSV file, creating parent-less paths
// as-is (the caller owns directory creation).
func WriteFile(path string, records []domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create export file", err).
			WithContext("file", path)
	}
	defer f.Close()

	return WriteRecords(f, records)
}

func recordRow(r *domain.Record) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	count := ""
	if r.ResponseCount != nil {
		count = strconv.Itoa(*r.ResponseCount)
	}

	return []string{
		r.Date.Format(dateLayout),
		strconv.FormatBool(r.DateInferred),
		r.Program,
		string(r.EvaluationType),
		r.Area,
		r.QuestionID,
		r.QuestionText,
		string(r.QuestionType),
		rating,
		count,
		formatDistribution(r.ResponseDistribution),
		formatChoices(r.Choices),
		string(r.Segment),
		strings.Join(r.TextResponses, listSeparator),
		r.SourceFile,
		r.SourceSheet,
		r.Theme.Label,
	}
}

// formatDistribution renders a distribution as "1:12|2:5|3:1|4:0",
// scale points in ascending order.
func formatDistribution(dist map[int]int) string {
	if len(dist) == 0 {
		return ""
	}
	points := make([]int, 0, len(dist))
	for p := range dist {
		points = append(points, p)
	}
	sort.Ints(points)

	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%d%s%d", p, pairSeparator, dist[p]))
	}
	return strings.Join(parts, listSeparator)
}

// formatChoices renders choices as "1:45.5:Ja|2:54.5:Nein". The label comes
// last so labels may contain the pair separator.
func formatChoices(choices map[int]domain.Choice) string {
	if len(choices) == 0 {
		return ""
	}
	nums := make([]int, 0, len(choices))
	for n := range choices {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		c := choices[n]
		parts = append(parts, fmt.Sprintf("%d%s%s%s%s",
			n, pairSeparator,
			strconv.FormatFloat(c.Percentage, 'f', -1, 64), pairSeparator,
			c.Label))
	}
	return strings.Join(parts, listSeparator)
}

// ReadRecords reads a previously exported CSV back into records. Themes are
// reassigned from the registry rather than trusted from the file so a stale
// export picks up current theme definitions.
func ReadRecords(r io.Reader, registry *themes.Registry) ([]domain.Record, error) {
	if registry == nil {
		registry = themes.NewRegistry()
	}

	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = len(header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV export", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("CSV export has no header", nil)
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := parseRow(row, registry)
		if err != nil {
			return nil, apperrors.NewParsingError("invalid CSV row", err).
				WithContext("row", i+2)
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadFile reads a previously exported CSV file.
func ReadFile(path string, registry *themes.Registry) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open export file", err).
			WithContext("file", path)
	}
	defer f.Close()

	return ReadRecords(f, registry)
}

func parseRow(row []string, registry *themes.Registry) (domain.Record, error) {
	date, err := time.Parse(dateLayout, row[0])
	if err != nil {
		return domain.Record{}, fmt.Errorf("bad date %q: %w", row[0], err)
	}

	record := domain.Record{
		Date:           date,
		DateInferred:   row[1] == "true",
		Program:        row[2],
		EvaluationType: domain.EvaluationType(row[3]),
		Area:           row[4],
		QuestionID:     row[5],
		QuestionText:   row[6],
		QuestionType:   domain.QuestionType(row[7]),
		Segment:        domain.SegmentKind(row[12]),
		SourceFile:     row[14],
		SourceSheet:    row[15],
	}

	if row[8] != "" {
		rating, err := strconv.ParseFloat(row[8], 64)
		if err != nil {
			return domain.Record{}, fmt.Errorf("bad rating %q: %w", row[8], err)
		}
		record.Rating = &rating
	}
	if row[9] != "" {
		count, err := strconv.Atoi(row[9])
		if err != nil {
			return domain.Record{}, fmt.Errorf("bad response count %q: %w", row[9], err)
		}
		record.ResponseCount = &count
	}

	if record.ResponseDistribution, err = parseDistribution(row[10]); err != nil {
		return domain.Record{}, err
	}
	if record.Choices, err = parseChoices(row[11]); err != nil {
		return domain.Record{}, err
	}
	if row[13] != "" {
		record.TextResponses = strings.Split(row[13], listSeparator)
	}

	record.Theme = registry.Assign(record.QuestionID, record.Area)
	return record, nil
}

func parseDistribution(field string) (map[int]int, error) {
	if field == "" {
		return nil, nil
	}
	dist := make(map[int]int)
	for _, part := range strings.Split(field, listSeparator) {
		pointText, countText, found := strings.Cut(part, pairSeparator)
		if !found {
			return nil, fmt.Errorf("bad distribution entry %q", part)
		}
		point, err := strconv.Atoi(pointText)
		if err != nil {
			return nil, fmt.Errorf("bad distribution point %q: %w", pointText, err)
		}
		count, err := strconv.Atoi(countText)
		if err != nil {
			return nil, fmt.Errorf("bad distribution count %q: %w", countText, err)
		}
		dist[point] = count
	}
	return dist, nil
}

func parseChoices(field string) (map[int]domain.Choice, error) {
	if field == "" {
		return nil, nil
	}
	choices := make(map[int]domain.Choice)
	for _, part := range strings.Split(field, listSeparator) {
		pieces := strings.SplitN(part, pairSeparator, 3)
		if len(pieces) != 3 {
			return nil, fmt.Errorf("bad choice entry %q", part)
		}
		num, err := strconv.Atoi(pieces[0])
		if err != nil {
			return nil, fmt.Errorf("bad choice index %q: %w", pieces[0], err)
		}
		pct, err := strconv.ParseFloat(pieces[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad choice percentage %q: %w", pieces[1], err)
		}
		choices[num] = domain.Choice{Label: pieces[2], Percentage: pct}
	}
	return choices, nil
}

// stripBOM removes a leading UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == utf8BOM[0] && buf[1] == utf8BOM[1] && buf[2] == utf8BOM[2] {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
