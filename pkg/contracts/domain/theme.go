package domain

// Theme is the coarse thematic grouping assigned to each question for
// cross-question aggregation. Priority orders themes in summary views
// (lower is more important); CoreMetric marks the strategic question
// groups that feed the KPI overview.
type Theme struct {
	Label      string `json:"label"`
	Color      string `json:"color"`
	Priority   int    `json:"priority"`
	CoreMetric bool   `json:"core_metric"`
}

// RatingCategory bands a 1-4 average rating for display.
type RatingCategory string

const (
	CategoryCritical         RatingCategory = "critical"
	CategoryNeedsImprovement RatingCategory = "needs_improvement"
	CategoryGood             RatingCategory = "good"
	CategoryVeryGood         RatingCategory = "very_good"
	CategoryUnknown          RatingCategory = "unknown"
)

// ProgramInfo describes one known cohort/program label.
type ProgramInfo struct {
	Label       string `json:"label"`
	Short       string `json:"short"`
	Color       string `json:"color"`
	Description string `json:"description"`
}
