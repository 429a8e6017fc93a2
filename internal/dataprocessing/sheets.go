package dataprocessing

import (
	"strings"

	"evalpulse/pkg/contracts/domain"
)

// sheetMarkers maps the sheet-name markers of the export format to question
// types. A sheet matching no marker carries no question data and is skipped,
// which is not an error.
var sheetMarkers = []struct {
	marker string
	qtype  domain.QuestionType
}{
	{"Antwortskala", domain.QuestionRatingScale},
	{"Einfachauswahl", domain.QuestionSingleChoice},
	{"Offene Frage", domain.QuestionOpenText},
}

// generalInfoSheet is the metadata sheet present in most exports.
const generalInfoSheet = "Allgemeine Angaben"

// questionIndexKeyword precedes the question index in sheet names, e.g.
// "Frage 7.3 (Antwortskala)".
const questionIndexKeyword = "Frage"

// SheetClass is the classification of one workbook sheet.
type SheetClass struct {
	Type domain.QuestionType
	// QuestionIndex is the index embedded in the sheet name, e.g. "7.3".
	// Malformed sheet names yield an empty index; callers must tolerate it.
	QuestionIndex string
}

// ClassifySheet determines a sheet's question type and embedded question
// index from its name. The second return value is false for sheets that
// carry no question data.
func ClassifySheet(sheetName string) (SheetClass, bool) {
	for _, m := range sheetMarkers {
		if strings.Contains(sheetName, m.marker) {
			return SheetClass{
				Type:          m.qtype,
				QuestionIndex: questionIndex(sheetName),
			}, true
		}
	}
	return SheetClass{}, false
}

// questionIndex extracts the text between the index keyword and the next
// opening parenthesis, trimmed. Missing keyword yields an empty index.
func questionIndex(sheetName string) string {
	_, after, found := strings.Cut(sheetName, questionIndexKeyword)
	if !found {
		return ""
	}
	before, _, _ := strings.Cut(after, "(")
	return strings.TrimSpace(before)
}
