package config

// Domain constants of the evaluation format. These are a fixed contract of
// the questionnaire export layout, not runtime configuration.
const (
	// RatingMin and RatingMax bound the agreement scale. Extraction drops
	// rows whose rating falls outside the bound; values are never clamped.
	RatingMin = 1.0
	RatingMax = 4.0

	// TrendThreshold is the minimum absolute delta between the first and
	// latest period average for a group to count as improving or declining.
	TrendThreshold = 0.1

	// Rating-scale sheet layout. Column positions are fixed by the export
	// format; they are not inferred from headers.
	RatingColumn        = 9  // average rating
	ResponseCountColumn = 10 // respondent count
	RatingHeaderRows    = 2  // header + scale-label row
	ChoiceHeaderRows    = 2
	OpenTextHeaderRows  = 3

	// ScalePoints is the number of points on the agreement scale.
	ScalePoints = 4
)

// DistributionColumns holds the column index of the respondent count for
// each scale point 1..4, in order.
var DistributionColumns = [ScalePoints]int{1, 3, 5, 7}

// Rating category cut points (half-open bands, 4.0 closes the top band).
const (
	CriticalBound         = 2.5
	NeedsImprovementBound = 3.0
	GoodBound             = 3.5
)
