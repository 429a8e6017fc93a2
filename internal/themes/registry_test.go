package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evalpulse/pkg/contracts/domain"
)

func TestRegistryAssign(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name       string
		questionID string
		areaText   string
		wantLabel  string
	}{
		{"exact teaching id", "7.5", "", "Unterricht"},
		{"exact atmosphere id", "5.2", "", "Schulatmosphäre"},
		{"exact feedback id", "9.3", "", "Feedback"},
		{"leading segment lookup", "2.7", "", "Demografie"},
		{"keyword fallback atmosphere", "20.1", "Das Schulklima ist angenehm", "Schulatmosphäre"},
		{"keyword fallback feedback", "21.4", "Rückmeldung der Lehrkräfte", "Feedback"},
		{"keyword is case-insensitive", "21.5", "FEEDBACK zur Arbeit", "Feedback"},
		{"unknown id without area", "99.9", "", "Unbekannt"},
		{"unknown id with unmatched area", "99.9", "Mensa und Verpflegung", "Unbekannt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLabel, r.Assign(tt.questionID, tt.areaText).Label)
		})
	}
}

func TestRegistryAssignExactBeatsKeywords(t *testing.T) {
	r := NewRegistry()

	// 9.1 is a feedback question even when its area text mentions teaching.
	theme := r.Assign("9.1", "Unterricht und Lehre")
	assert.Equal(t, "Feedback", theme.Label)
}

func TestRegistryThemesOrdering(t *testing.T) {
	themes := NewRegistry().Themes()
	assert.NotEmpty(t, themes)

	for i := 1; i < len(themes); i++ {
		assert.LessOrEqual(t, themes[i-1].Priority, themes[i].Priority)
	}
}

func TestRegistryCoreQuestionIDs(t *testing.T) {
	ids := NewRegistry().CoreQuestionIDs()

	assert.Contains(t, ids, "5.1")
	assert.Contains(t, ids, "7.13")
	assert.Contains(t, ids, "9.2")
	assert.NotContains(t, ids, "1.1")
}

func TestMatchProgram(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"short code", "BM_Evaluation_2024.11.xlsx", "BM (Büromanagement)"},
		{"lowercase code", "bm_umfrage.xlsx", "BM (Büromanagement)"},
		{"full word", "Büromanagement_2024.xlsx", "BM (Büromanagement)"},
		{"vk cohort", "VK_Abschluss_2025.02.xlsx", "VK (Veranstaltungskaufleute)"},
		{"no match", "Umfrage_2024.xlsx", domain.ProgramUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchProgram(tt.filename))
		})
	}
}

func TestRatingCategory(t *testing.T) {
	tests := []struct {
		rating float64
		want   domain.RatingCategory
	}{
		{1.0, domain.CategoryCritical},
		{2.49, domain.CategoryCritical},
		{2.5, domain.CategoryNeedsImprovement},
		{2.99, domain.CategoryNeedsImprovement},
		{3.0, domain.CategoryGood},
		{3.49, domain.CategoryGood},
		{3.5, domain.CategoryVeryGood},
		{4.0, domain.CategoryVeryGood},
		{0.5, domain.CategoryUnknown},
		{4.5, domain.CategoryUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RatingCategory(tt.rating), "rating %.2f", tt.rating)
	}
}
