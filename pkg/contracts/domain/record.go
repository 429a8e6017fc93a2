package domain

import "time"

// QuestionType identifies how a survey question was answered.
type QuestionType string

const (
	QuestionRatingScale  QuestionType = "rating_scale"
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionOpenText     QuestionType = "open_text"
)

// EvaluationType distinguishes the final evaluation round from interim ones.
type EvaluationType string

const (
	EvaluationFinal   EvaluationType = "final"
	EvaluationInterim EvaluationType = "interim"
)

// ProgramUnknown is the program label used when no keyword rule matches
// the source file name.
const ProgramUnknown = "unknown"

// SegmentKind classifies a single-choice question as a demographic
// segmentation dimension. Questions tagged with anything other than
// SegmentOther are eligible for segment filtering downstream.
type SegmentKind string

const (
	SegmentGender        SegmentKind = "gender"
	SegmentAge           SegmentKind = "age"
	SegmentOrigin        SegmentKind = "origin"
	SegmentEducationPath SegmentKind = "education_path"
	SegmentOther         SegmentKind = "other"
)

// Segmentable reports whether the kind is a usable segmentation dimension.
func (k SegmentKind) Segmentable() bool {
	return k == SegmentGender || k == SegmentAge || k == SegmentOrigin || k == SegmentEducationPath
}

// Choice is one answer option of a single-choice question together with
// the share of respondents that picked it.
type Choice struct {
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

// Record is the atomic extracted unit: one question (or one sub-question of
// a grouped rating-scale sheet) from one sheet of one workbook.
//
// Fields that only apply to a single question type use pointer or nil-able
// types so that "absent" is distinguishable from a zero value; consumers must
// not read Rating on a non-rating record and so on.
type Record struct {
	Date           time.Time      `json:"date"`
	DateInferred   bool           `json:"date_inferred,omitempty"`
	Program        string         `json:"program"`
	EvaluationType EvaluationType `json:"evaluation_type"`
	Area           string         `json:"area,omitempty"`
	QuestionID     string         `json:"question_id"`
	QuestionText   string         `json:"question_text"`
	QuestionType   QuestionType   `json:"question_type"`

	// Rating scale only. Rating is always within [1,4] when present;
	// out-of-bound rows are dropped during extraction, never clamped.
	Rating               *float64    `json:"rating,omitempty"`
	ResponseDistribution map[int]int `json:"response_distribution,omitempty"`

	// Single choice only.
	Choices map[int]Choice `json:"choices,omitempty"`
	Segment SegmentKind    `json:"segment,omitempty"`

	// Open text only.
	TextResponses []string `json:"text_responses,omitempty"`

	ResponseCount *int `json:"response_count,omitempty"`

	// Provenance, display/debug only.
	SourceFile  string `json:"source_file"`
	SourceSheet string `json:"source_sheet"`

	// Derived classification, assigned by the theme registry.
	Theme Theme `json:"theme"`
}

// HasRating reports whether the record carries a valid rating value.
func (r *Record) HasRating() bool {
	return r.QuestionType == QuestionRatingScale && r.Rating != nil
}

// SurveyInfo is best-effort metadata read from a workbook's general
// information sheet, when present.
type SurveyInfo struct {
	SurveyName     string `json:"survey_name,omitempty"`
	CompletionDate string `json:"completion_date,omitempty"`
	Questionnaire  string `json:"questionnaire,omitempty"`
	InvitedCount   int    `json:"invited_count,omitempty"`
	CompletedCount int    `json:"completed_count,omitempty"`
	ResponseRate   string `json:"response_rate,omitempty"`
}

// FileOutcome reports the per-file result of a batch ingestion pass.
type FileOutcome struct {
	File         string      `json:"file"`
	Success      bool        `json:"success"`
	Error        string      `json:"error,omitempty"`
	RecordCount  int         `json:"record_count"`
	DateInferred bool        `json:"date_inferred,omitempty"`
	Survey       *SurveyInfo `json:"survey,omitempty"`
}

// BatchReport summarizes one ingestion pass over a set of workbook files.
type BatchReport struct {
	BatchID      string        `json:"batch_id"`
	IngestedAt   time.Time     `json:"ingested_at"`
	Files        []FileOutcome `json:"files"`
	TotalRecords int           `json:"total_records"`
	FromCache    bool          `json:"from_cache"`
}

// FailedFiles returns the names of files that could not be ingested.
func (b *BatchReport) FailedFiles() []string {
	var failed []string
	for _, f := range b.Files {
		if !f.Success {
			failed = append(failed, f.File)
		}
	}
	return failed
}
