// Package analytics computes timelines, trend metrics and headline insights
// over normalized survey records. All computations are pure functions of the
// record slice they receive; the analyzer holds no dataset state.
package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"evalpulse/internal/config"
	"evalpulse/internal/themes"
	"evalpulse/pkg/contracts/domain"
)

// GroupBy selects the grouping key for timelines and trend metrics.
type GroupBy string

const (
	GroupByTheme    GroupBy = "theme"
	GroupByQuestion GroupBy = "question"
	GroupByProgram  GroupBy = "program"
)

// Valid reports whether g is a known grouping key.
func (g GroupBy) Valid() bool {
	return g == GroupByTheme || g == GroupByQuestion || g == GroupByProgram
}

// Analyzer computes trend analytics over rating-scale records.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// FilterRatingScale returns only the records carrying a valid rating.
// Choice and open-text records never contribute to rating analytics.
func FilterRatingScale(records []domain.Record) []domain.Record {
	var rated []domain.Record
	for i := range records {
		if records[i].HasRating() {
			rated = append(rated, records[i])
		}
	}
	return rated
}

// groupKey resolves the grouping key and display color of one record.
func groupKey(r *domain.Record, groupBy GroupBy) (key, color string) {
	switch groupBy {
	case GroupByQuestion:
		return r.QuestionID, r.Theme.Color
	case GroupByProgram:
		return r.Program, ""
	default:
		return r.Theme.Label, r.Theme.Color
	}
}

// timeline is the mutable aggregation state of one group.
type timeline struct {
	color     string
	sums      map[time.Time]float64
	counts    map[time.Time]int
	questions map[string]struct{}
}

// buildTimelines aggregates per-group per-date rating sums. Records without
// a rating are ignored.
func buildTimelines(records []domain.Record, groupBy GroupBy) map[string]*timeline {
	groups := make(map[string]*timeline)
	for i := range records {
		r := &records[i]
		if !r.HasRating() {
			continue
		}

		key, color := groupKey(r, groupBy)
		if key == "" {
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &timeline{
				color:     color,
				sums:      make(map[time.Time]float64),
				counts:    make(map[time.Time]int),
				questions: make(map[string]struct{}),
			}
			groups[key] = g
		}

		g.sums[r.Date] += *r.Rating
		g.counts[r.Date]++
		g.questions[r.QuestionID] = struct{}{}
	}
	return groups
}

// points converts the aggregation state into a date-ordered point slice.
func (g *timeline) points() []domain.TimelinePoint {
	dates := make([]time.Time, 0, len(g.sums))
	for d := range g.sums {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]domain.TimelinePoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, domain.TimelinePoint{
			Date:          d,
			AverageRating: g.sums[d] / float64(g.counts[d]),
			RecordCount:   g.counts[d],
		})
	}
	return points
}

// TimeSeries builds the date-ordered rating timeline per group. Groups are
// returned in stable key order. An empty input yields an empty slice.
func (a *Analyzer) TimeSeries(records []domain.Record, groupBy GroupBy) []domain.TimeSeries {
	groups := buildTimelines(records, groupBy)

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	series := make([]domain.TimeSeries, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		series = append(series, domain.TimeSeries{
			Key:    key,
			Color:  g.color,
			Points: g.points(),
		})
	}
	return series
}

// TrendMetrics computes per-group movement between the first and the latest
// evaluation period. Groups observed on fewer than two distinct dates are
// excluded. The result is ordered worst delta first so declining groups
// surface at the top.
func (a *Analyzer) TrendMetrics(records []domain.Record, groupBy GroupBy) []domain.TrendMetric {
	groups := buildTimelines(records, groupBy)

	var metrics []domain.TrendMetric
	for key, g := range groups {
		points := g.points()
		if len(points) < 2 {
			continue
		}

		first := points[0]
		latest := points[len(points)-1]
		delta := latest.AverageRating - first.AverageRating

		metrics = append(metrics, domain.TrendMetric{
			Key:            key,
			FirstAverage:   first.AverageRating,
			LatestAverage:  latest.AverageRating,
			Delta:          delta,
			Direction:      direction(delta),
			PeriodCount:    len(points),
			Span:           fmt.Sprintf("%s to %s", first.Date.Format("2006-01"), latest.Date.Format("2006-01")),
			QuestionCount:  len(g.questions),
			LatestCategory: themes.RatingCategory(latest.AverageRating),
		})
	}

	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Delta != metrics[j].Delta {
			return metrics[i].Delta < metrics[j].Delta
		}
		return metrics[i].Key < metrics[j].Key
	})
	return metrics
}

// direction bands a delta against the stability threshold.
func direction(delta float64) domain.TrendDirection {
	switch {
	case delta > config.TrendThreshold:
		return domain.TrendImproving
	case delta < -config.TrendThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// MultiPeriodQuestions counts the rating questions observed on at least two
// distinct evaluation dates.
func (a *Analyzer) MultiPeriodQuestions(records []domain.Record) int {
	dates := make(map[string]map[time.Time]struct{})
	for i := range records {
		r := &records[i]
		if !r.HasRating() {
			continue
		}
		if dates[r.QuestionID] == nil {
			dates[r.QuestionID] = make(map[time.Time]struct{})
		}
		dates[r.QuestionID][r.Date] = struct{}{}
	}

	count := 0
	for _, seen := range dates {
		if len(seen) >= 2 {
			count++
		}
	}
	return count
}

// Insights produces the headline analysis over the whole dataset. Missing
// prerequisites degrade individual fields and set InsufficientReason; the
// summary itself is always returned.
func (a *Analyzer) Insights(records []domain.Record) *domain.InsightSummary {
	rated := FilterRatingScale(records)
	summary := &domain.InsightSummary{}

	if len(rated) == 0 {
		summary.InsufficientReason = "no rating-scale records in dataset"
		return summary
	}

	questionIDs := make(map[string]struct{})
	periods := make(map[time.Time]struct{})
	for i := range rated {
		questionIDs[rated[i].QuestionID] = struct{}{}
		periods[rated[i].Date] = struct{}{}
	}
	summary.TotalQuestions = len(questionIDs)
	summary.TotalPeriods = len(periods)
	summary.MultiPeriodQuestions = a.MultiPeriodQuestions(rated)
	summary.KPI = a.kpi(rated)

	if summary.TotalPeriods < 2 {
		summary.InsufficientReason = "trend analysis requires at least two evaluation periods"
		return summary
	}

	summary.OverallTrend = a.overallTrend(rated)

	// Best and worst are the delta extremes regardless of whether they
	// cross the stability threshold; direction still bands each theme.
	themeMetrics := a.TrendMetrics(rated, GroupByTheme)
	if len(themeMetrics) > 0 {
		worst := themeMetrics[0]
		best := themeMetrics[len(themeMetrics)-1]
		summary.WorstDecliningTheme = &domain.ThemeDelta{Theme: worst.Key, Delta: worst.Delta}
		summary.BestImprovingTheme = &domain.ThemeDelta{Theme: best.Key, Delta: best.Delta}
	}
	for _, m := range themeMetrics {
		if m.Direction == domain.TrendStable {
			summary.StableThemes = append(summary.StableThemes, m.Key)
		}
	}
	sort.Strings(summary.StableThemes)

	return summary
}

// overallTrend treats the whole dataset as one group.
func (a *Analyzer) overallTrend(rated []domain.Record) *domain.TrendMetric {
	g := &timeline{
		sums:      make(map[time.Time]float64),
		counts:    make(map[time.Time]int),
		questions: make(map[string]struct{}),
	}
	for i := range rated {
		r := &rated[i]
		g.sums[r.Date] += *r.Rating
		g.counts[r.Date]++
		g.questions[r.QuestionID] = struct{}{}
	}

	points := g.points()
	if len(points) < 2 {
		return nil
	}

	first := points[0]
	latest := points[len(points)-1]
	delta := latest.AverageRating - first.AverageRating

	return &domain.TrendMetric{
		Key:            "overall",
		FirstAverage:   first.AverageRating,
		LatestAverage:  latest.AverageRating,
		Delta:          delta,
		Direction:      direction(delta),
		PeriodCount:    len(points),
		Span:           fmt.Sprintf("%s to %s", first.Date.Format("2006-01"), latest.Date.Format("2006-01")),
		QuestionCount:  len(g.questions),
		LatestCategory: themes.RatingCategory(latest.AverageRating),
	}
}

// kpi computes the headline numbers over the latest evaluation period.
func (a *Analyzer) kpi(rated []domain.Record) *domain.KPISummary {
	var latest time.Time
	for i := range rated {
		if rated[i].Date.After(latest) {
			latest = rated[i].Date
		}
	}

	kpi := &domain.KPISummary{}
	var sum float64
	coreQuestions := make(map[string]struct{})

	for i := range rated {
		r := &rated[i]
		if !r.Date.Equal(latest) {
			continue
		}

		sum += *r.Rating
		kpi.RatingCount++
		if r.Theme.CoreMetric {
			coreQuestions[r.QuestionID] = struct{}{}
		}

		switch themes.RatingCategory(*r.Rating) {
		case domain.CategoryCritical:
			kpi.HighNeedCount++
		case domain.CategoryNeedsImprovement:
			kpi.MediumNeedCount++
		default:
			kpi.LowNeedCount++
		}
	}

	if kpi.RatingCount > 0 {
		kpi.AverageRating = math.Round(sum/float64(kpi.RatingCount)*100) / 100
	}
	kpi.CoreMetricCount = len(coreQuestions)
	return kpi
}
