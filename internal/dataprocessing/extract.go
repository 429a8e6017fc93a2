package dataprocessing

import (
	"log/slog"
	"regexp"
	"strings"

	"evalpulse/internal/config"
	"evalpulse/internal/themes"
	"evalpulse/pkg/contracts/domain"
)

// Extractor converts classified sheet rows into normalized records. It is a
// pure transform over in-memory rows; all side effects are log output.
type Extractor struct {
	logger *slog.Logger
	themes *themes.Registry
}

// NewExtractor creates a record extractor
func NewExtractor(logger *slog.Logger, registry *themes.Registry) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = themes.NewRegistry()
	}
	return &Extractor{logger: logger, themes: registry}
}

// subQuestionPattern splits row text of the form "9.2 - Fragentext" into the
// embedded sub-question id and the remaining prose.
var subQuestionPattern = regexp.MustCompile(`^(\d+\.\d+)\s*-?\s*(.*)$`)

// areaFallback names the question areas of the standard questionnaire, keyed
// by the leading numeric segment of the sheet's question index. Used when a
// rating sheet carries no usable area header.
var areaFallback = map[string]string{
	"1": "Demografische Daten", "2": "Demografische Daten",
	"3": "Demografische Daten", "4": "Demografische Daten",
	"5":  "Schulatmosphäre und Schulklima",
	"6":  "Offenes Feedback zur Atmosphäre",
	"7":  "Unterricht und Lehre",
	"8":  "Offenes Feedback zum Unterricht",
	"9":  "Leistungsbewertung und Prüfungen",
	"10": "Individuelle Förderung und Unterstützung",
	"11": "Digitalisierung und Medien",
	"12": "Zukunftsperspektiven und Berufsvorbereitung",
	"13": "Offenes Feedback allgemein",
	"14": "Weitere Anregungen",
}

const (
	areaChoice   = "Demographische Daten"
	areaOpenText = "Qualitative Rückmeldungen"
)

// ExtractSheet dispatches a classified sheet to the matching routine.
func (e *Extractor) ExtractSheet(rows [][]string, sheetName string, class SheetClass, meta FileMetadata, sourceFile string) []domain.Record {
	switch class.Type {
	case domain.QuestionRatingScale:
		return e.extractRatingScale(rows, sheetName, class, meta, sourceFile)
	case domain.QuestionSingleChoice:
		return e.extractSingleChoice(rows, sheetName, class, meta, sourceFile)
	case domain.QuestionOpenText:
		return e.extractOpenText(rows, sheetName, class, meta, sourceFile)
	default:
		return nil
	}
}

// extractRatingScale walks the data rows of a rating sheet and emits one
// record per valid sub-question row. A row is skipped when its text cell is
// empty, its rating cell is empty or non-numeric, or the rating falls
// outside the scale bounds.
func (e *Extractor) extractRatingScale(rows [][]string, sheetName string, class SheetClass, meta FileMetadata, sourceFile string) []domain.Record {
	var records []domain.Record

	area := e.resolveArea(rows, class.QuestionIndex)

	for idx := config.RatingHeaderRows; idx < len(rows); idx++ {
		row := rows[idx]

		text := cell(row, 0)
		if text == "" {
			continue
		}

		rating, ok := parseBoundedFloat(cell(row, config.RatingColumn), config.RatingMin, config.RatingMax)
		if !ok {
			continue
		}

		questionID := class.QuestionIndex
		questionText := text
		if match := subQuestionPattern.FindStringSubmatch(text); match != nil {
			questionID = match[1]
			if rest := strings.TrimSpace(match[2]); rest != "" {
				questionText = rest
			}
		}

		record := domain.Record{
			Date:           meta.Date,
			DateInferred:   meta.DateInferred,
			Program:        meta.Program,
			EvaluationType: meta.EvaluationType,
			Area:           area,
			QuestionID:     questionID,
			QuestionText:   questionText,
			QuestionType:   domain.QuestionRatingScale,
			Rating:         &rating,
			SourceFile:     sourceFile,
			SourceSheet:    sheetName,
			Theme:          e.themes.Assign(questionID, area),
		}

		if count, ok := parseInt(cell(row, config.ResponseCountColumn)); ok {
			record.ResponseCount = &count
		}

		if dist := extractDistribution(row); len(dist) > 0 {
			record.ResponseDistribution = dist
		}

		records = append(records, record)
	}

	return records
}

// extractDistribution reads the respondent count per scale point from the
// fixed distribution columns. Non-empty but unparseable cells count as zero,
// empty cells contribute no entry.
func extractDistribution(row []string) map[int]int {
	dist := make(map[int]int)
	for i, col := range config.DistributionColumns {
		value := cell(row, col)
		if value == "" {
			continue
		}
		count, ok := parseInt(value)
		if !ok {
			count = 0
		}
		dist[i+1] = count
	}
	return dist
}

// resolveArea reads the area text from the sheet's leading rows, rejecting
// purely numeric or too-short candidates, and falls back to the static area
// table keyed by the question index.
func (e *Extractor) resolveArea(rows [][]string, questionIndex string) string {
	limit := len(rows)
	if limit > 3 {
		limit = 3
	}
	for idx := 0; idx < limit; idx++ {
		candidate := cell(rows[idx], 0)
		if candidate == "" || len([]rune(candidate)) <= 3 {
			continue
		}
		if isNumericText(candidate) {
			continue
		}
		switch strings.ToLower(candidate) {
		case "nan", "none", "null":
			continue
		}
		return candidate
	}

	main, _, _ := strings.Cut(questionIndex, ".")
	if main == "" {
		return ""
	}
	if area, ok := areaFallback[main]; ok {
		return area
	}
	return "Bereich " + main
}

// isNumericText reports whether the text is just a number.
func isNumericText(s string) bool {
	stripped := strings.ReplaceAll(s, ".", "")
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// respondentMarker flags the per-sheet total row of choice sheets
// ("N=" rows).
const respondentMarker = "N="

// extractSingleChoice emits exactly one record per choice sheet. Data rows
// hold (index, label, percentage) triples; a row failing that pattern is
// checked for the respondent-total marker instead, anything else is skipped.
func (e *Extractor) extractSingleChoice(rows [][]string, sheetName string, class SheetClass, meta FileMetadata, sourceFile string) []domain.Record {
	if len(rows) == 0 {
		return nil
	}

	questionText := cell(rows[0], 0)
	if questionText == "" {
		return nil
	}

	choices := make(map[int]domain.Choice)
	var responseCount *int

	for idx := config.ChoiceHeaderRows; idx < len(rows); idx++ {
		row := rows[idx]

		label := cell(row, 1)
		if label == "" {
			continue
		}

		num, numOK := parseInt(cell(row, 0))
		percentage, pctOK := parseFloat(cell(row, 2))
		if numOK && pctOK {
			choices[num] = domain.Choice{Label: label, Percentage: percentage}
			continue
		}

		if strings.Contains(label, respondentMarker) {
			if total, ok := parseInt(cell(row, 2)); ok {
				responseCount = &total
			}
		}
	}

	if len(choices) == 0 {
		return nil
	}

	record := domain.Record{
		Date:           meta.Date,
		DateInferred:   meta.DateInferred,
		Program:        meta.Program,
		EvaluationType: meta.EvaluationType,
		Area:           areaChoice,
		QuestionID:     class.QuestionIndex,
		QuestionText:   questionText,
		QuestionType:   domain.QuestionSingleChoice,
		Choices:        choices,
		Segment:        detectSegment(questionText, choices),
		ResponseCount:  responseCount,
		SourceFile:     sourceFile,
		SourceSheet:    sheetName,
		Theme:          e.themes.Assign(class.QuestionIndex, areaChoice),
	}

	return []domain.Record{record}
}

// participation markers of the open-text count sentence
// ("19 von 19 Teilnehmenden haben diese Frage beantwortet").
var participationMarkers = []string{"haben", "beantwortet"}

// extractOpenText emits one record per open-text sheet, collecting the
// second-column answers below the header block.
func (e *Extractor) extractOpenText(rows [][]string, sheetName string, class SheetClass, meta FileMetadata, sourceFile string) []domain.Record {
	if len(rows) == 0 {
		return nil
	}

	questionText := cell(rows[0], 0)
	if questionText == "" {
		return nil
	}

	responseCount := 0
	if len(rows) > 1 {
		info := cell(rows[1], 0)
		if containsAll(info, participationMarkers) {
			if n, ok := firstInt(info); ok {
				responseCount = n
			}
		}
	}

	var responses []string
	for idx := config.OpenTextHeaderRows; idx < len(rows); idx++ {
		answer := cell(rows[idx], 1)
		if len([]rune(answer)) > 1 {
			responses = append(responses, answer)
		}
	}

	record := domain.Record{
		Date:           meta.Date,
		DateInferred:   meta.DateInferred,
		Program:        meta.Program,
		EvaluationType: meta.EvaluationType,
		Area:           areaOpenText,
		QuestionID:     class.QuestionIndex,
		QuestionText:   questionText,
		QuestionType:   domain.QuestionOpenText,
		TextResponses:  responses,
		ResponseCount:  &responseCount,
		SourceFile:     sourceFile,
		SourceSheet:    sheetName,
		Theme:          e.themes.Assign(class.QuestionIndex, areaOpenText),
	}

	return []domain.Record{record}
}

// containsAll reports whether the text contains every marker.
func containsAll(text string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

// segmentRule matches question or choice text against a segmentation kind.
type segmentRule struct {
	kind          domain.SegmentKind
	questionWords []string
	choiceWords   []string
}

var segmentRules = []segmentRule{
	{
		kind:          domain.SegmentGender,
		questionWords: []string{"geschlecht", "männlich", "weiblich"},
		choiceWords:   []string{"männlich", "weiblich"},
	},
	{
		kind:          domain.SegmentAge,
		questionWords: []string{"alter", "lebensjahr", "geboren"},
		choiceWords:   []string{"jahr", "alt"},
	},
	{
		kind:          domain.SegmentOrigin,
		questionWords: []string{"herkunft", "migration", "geburtsland", "staatsangehörigkeit"},
	},
	{
		kind:          domain.SegmentEducationPath,
		questionWords: []string{"schulabschluss", "abschluss", "vorbildung", "bildungsweg"},
	},
}

// detectSegment tags a single-choice question as a demographic segmentation
// dimension based on keywords in the question text and choice labels. The
// tag drives downstream filter eligibility only.
func detectSegment(questionText string, choices map[int]domain.Choice) domain.SegmentKind {
	question := strings.ToLower(questionText)

	for _, rule := range segmentRules {
		for _, word := range rule.questionWords {
			if strings.Contains(question, word) {
				return rule.kind
			}
		}
		for _, word := range rule.choiceWords {
			for _, choice := range choices {
				if strings.Contains(strings.ToLower(choice.Label), word) {
					return rule.kind
				}
			}
		}
	}

	return domain.SegmentOther
}
