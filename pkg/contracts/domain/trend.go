package domain

import "time"

// TrendDirection classifies the change between the first and latest
// evaluation period of a group.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TimelinePoint is one evaluation period's average rating for a group.
type TimelinePoint struct {
	Date          time.Time `json:"date"`
	AverageRating float64   `json:"average_rating"`
	RecordCount   int       `json:"record_count"`
}

// TimeSeries is the date-ordered rating timeline of one group key
// (a theme, a question id, or a program).
type TimeSeries struct {
	Key    string          `json:"key"`
	Color  string          `json:"color,omitempty"`
	Points []TimelinePoint `json:"points"`
}

// TrendMetric summarizes the movement of one group across evaluation
// periods. Only groups with at least two distinct dates produce a metric.
type TrendMetric struct {
	Key            string         `json:"key"`
	FirstAverage   float64        `json:"first_average"`
	LatestAverage  float64        `json:"latest_average"`
	Delta          float64        `json:"delta"`
	Direction      TrendDirection `json:"direction"`
	PeriodCount    int            `json:"period_count"`
	Span           string         `json:"span"`
	QuestionCount  int            `json:"question_count,omitempty"`
	LatestCategory RatingCategory `json:"latest_category"`
}

// ThemeDelta names a theme together with its trend delta.
type ThemeDelta struct {
	Theme string  `json:"theme"`
	Delta float64 `json:"delta"`
}

// KPISummary carries the headline numbers of the current dataset.
type KPISummary struct {
	AverageRating   float64 `json:"average_rating"`
	RatingCount     int     `json:"rating_count"`
	HighNeedCount   int     `json:"high_need_count"`
	MediumNeedCount int     `json:"medium_need_count"`
	LowNeedCount    int     `json:"low_need_count"`
	CoreMetricCount int     `json:"core_metric_count"`
}

// InsightSummary is the automatic headline analysis over the whole dataset.
// When the dataset cannot support a given insight the corresponding field is
// nil/empty and InsufficientReason names the missing prerequisite; this is a
// legitimate partial result, not an error.
type InsightSummary struct {
	TotalQuestions       int          `json:"total_questions"`
	TotalPeriods         int          `json:"total_periods"`
	MultiPeriodQuestions int          `json:"multi_period_questions"`
	OverallTrend         *TrendMetric `json:"overall_trend,omitempty"`
	BestImprovingTheme   *ThemeDelta  `json:"best_improving_theme,omitempty"`
	WorstDecliningTheme  *ThemeDelta  `json:"worst_declining_theme,omitempty"`
	StableThemes         []string     `json:"stable_themes,omitempty"`
	KPI                  *KPISummary  `json:"kpi,omitempty"`
	InsufficientReason   string       `json:"insufficient_reason,omitempty"`
}
