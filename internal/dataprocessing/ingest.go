package dataprocessing

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "evalpulse/internal/errors"
	"evalpulse/internal/themes"
	"evalpulse/pkg/contracts/domain"
)

// Ingestor reads survey workbooks and turns them into normalized records.
type Ingestor struct {
	logger    *slog.Logger
	extractor *Extractor
	now       func() time.Time
}

// NewIngestor creates a workbook ingestor.
func NewIngestor(logger *slog.Logger, registry *themes.Registry) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		logger:    logger,
		extractor: NewExtractor(logger, registry),
		now:       time.Now,
	}
}

// ParseFile extracts all records from one workbook. Sheets matching no known
// marker are skipped silently; a workbook with zero recognized sheets yields
// an empty record slice, not an error. The returned SurveyInfo is nil when
// the workbook has no general information sheet.
func (i *Ingestor) ParseFile(ctx context.Context, path string) ([]domain.Record, *domain.SurveyInfo, error) {
	logger := i.logger

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("file", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("failed to close workbook", slog.String("file", path), slog.String("error", cerr.Error()))
		}
	}()

	filename := filepath.Base(path)
	meta := ExtractFileMetadata(filename, i.now())
	if meta.DateInferred {
		logger.WarnContext(ctx, "no date in file name, falling back to ingestion time",
			slog.String("file", filename))
	}

	var (
		records []domain.Record
		survey  *domain.SurveyInfo
		skipped int
	)

	for _, sheetName := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if strings.Contains(sheetName, generalInfoSheet) {
			survey = i.readSurveyInfo(f, sheetName)
			continue
		}

		class, ok := ClassifySheet(sheetName)
		if !ok {
			skipped++
			continue
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			logger.WarnContext(ctx, "failed to read sheet rows",
				slog.String("file", filename),
				slog.String("sheet", sheetName),
				slog.String("error", err.Error()))
			continue
		}

		records = append(records, i.extractor.ExtractSheet(rows, sheetName, class, meta, filename)...)
	}

	logger.InfoContext(ctx, "workbook parsed",
		slog.String("file", filename),
		slog.Int("records", len(records)),
		slog.Int("skipped_sheets", skipped),
		slog.String("program", meta.Program),
		slog.String("evaluation_type", string(meta.EvaluationType)))

	return records, survey, nil
}

// ParseFiles runs ParseFile over a batch. A failing file is recorded in its
// outcome and never aborts the rest of the batch.
func (i *Ingestor) ParseFiles(ctx context.Context, paths []string) ([]domain.Record, []domain.FileOutcome) {
	var (
		records  []domain.Record
		outcomes = make([]domain.FileOutcome, 0, len(paths))
	)

	for _, path := range paths {
		filename := filepath.Base(path)

		fileRecords, survey, err := i.ParseFile(ctx, path)
		if err != nil {
			fileErr := apperrors.NewFileError(filename, err)
			i.logger.ErrorContext(ctx, "workbook ingestion failed",
				slog.String("file", filename),
				slog.String("error", fileErr.Error()))
			outcomes = append(outcomes, domain.FileOutcome{
				File:  filename,
				Error: err.Error(),
			})
			continue
		}

		outcome := domain.FileOutcome{
			File:        filename,
			Success:     true,
			RecordCount: len(fileRecords),
			Survey:      survey,
		}
		if len(fileRecords) > 0 {
			outcome.DateInferred = fileRecords[0].DateInferred
		}

		records = append(records, fileRecords...)
		outcomes = append(outcomes, outcome)
	}

	return records, outcomes
}

// surveyInfoFields maps key fragments of the general information sheet to
// setters. Matching is case-insensitive substring, values live in the
// second column of the key's row.
var surveyInfoFields = []struct {
	keyword string
	assign  func(*domain.SurveyInfo, string)
}{
	{"name der befragung", func(s *domain.SurveyInfo, v string) { s.SurveyName = v }},
	{"abschlussdatum", func(s *domain.SurveyInfo, v string) { s.CompletionDate = v }},
	{"fragebogen", func(s *domain.SurveyInfo, v string) { s.Questionnaire = v }},
	{"eingeladen", func(s *domain.SurveyInfo, v string) {
		if n, ok := firstInt(v); ok {
			s.InvitedCount = n
		}
	}},
	{"beantwortet", func(s *domain.SurveyInfo, v string) {
		if n, ok := firstInt(v); ok {
			s.CompletedCount = n
		}
	}},
	{"rücklauf", func(s *domain.SurveyInfo, v string) { s.ResponseRate = v }},
}

// readSurveyInfo scans the general information sheet for known key/value
// rows. Everything here is best effort; a malformed sheet yields a partially
// filled or empty struct.
func (i *Ingestor) readSurveyInfo(f *excelize.File, sheetName string) *domain.SurveyInfo {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		i.logger.Warn("failed to read general information sheet",
			slog.String("sheet", sheetName),
			slog.String("error", err.Error()))
		return nil
	}

	info := &domain.SurveyInfo{}
	for _, row := range rows {
		key := strings.ToLower(cell(row, 0))
		value := cell(row, 1)
		if key == "" || value == "" {
			continue
		}
		for _, field := range surveyInfoFields {
			if strings.Contains(key, field.keyword) {
				field.assign(info, value)
				break
			}
		}
	}

	return info
}
