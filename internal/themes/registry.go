// Package themes assigns each extracted question a coarse thematic grouping.
//
// Assignment is a deterministic, side-effect-free lookup: exact question id
// first, then the id's leading numeric segment, then keyword matching over
// the sheet's area text, then an unknown default. The keyword step operates
// on free text and is inherently heuristic; occasional misclassification is
// an accepted approximation.
package themes

import (
	"sort"
	"strings"

	"evalpulse/internal/config"
	"evalpulse/pkg/contracts/domain"
)

// Theme labels. The questionnaire is German, so the labels are too.
var (
	themeAtmosphere = domain.Theme{Label: "Schulatmosphäre", Color: "#3498db", Priority: 1, CoreMetric: true}
	themeTeaching   = domain.Theme{Label: "Unterricht", Color: "#e74c3c", Priority: 1, CoreMetric: true}
	themeFeedback   = domain.Theme{Label: "Feedback", Color: "#f39c12", Priority: 2, CoreMetric: true}
	themeDemography = domain.Theme{Label: "Demografie", Color: "#95a5a6", Priority: 5, CoreMetric: false}
	themeOpenText   = domain.Theme{Label: "Offene Antworten", Color: "#34495e", Priority: 4, CoreMetric: false}
	themeMisc       = domain.Theme{Label: "Sonstige Bereiche", Color: "#7f8c8d", Priority: 3, CoreMetric: false}
	themeUnknown    = domain.Theme{Label: "Unbekannt", Color: "#7f8c8d", Priority: 5, CoreMetric: false}
)

// questionThemes maps known question identifiers (and leading segments) to
// their theme. The table reflects the fixed questionnaire structure:
// 5.x school atmosphere, 7.x teaching, 9.x feedback; low-numbered groups are
// demographics, 4/6/8 are open-text blocks.
var questionThemes = map[string]domain.Theme{
	"5.1": themeAtmosphere, "5.2": themeAtmosphere, "5.3": themeAtmosphere,
	"5.4": themeAtmosphere, "5.5": themeAtmosphere,

	"7.1": themeTeaching, "7.2": themeTeaching, "7.3": themeTeaching,
	"7.4": themeTeaching, "7.5": themeTeaching, "7.6": themeTeaching,
	"7.7": themeTeaching, "7.8": themeTeaching, "7.9": themeTeaching,
	"7.10": themeTeaching, "7.11": themeTeaching, "7.12": themeTeaching,
	"7.13": themeTeaching,

	"9.1": themeFeedback, "9.2": themeFeedback, "9.3": themeFeedback,

	"1": themeDemography, "1.1": themeDemography, "1.2": themeDemography,
	"2": themeDemography, "2.1": themeDemography, "2.2": themeDemography,

	"4": themeOpenText, "6": themeOpenText, "8": themeOpenText,

	"9": themeMisc, "10": themeMisc, "11": themeMisc, "12": themeMisc,
}

// keywordRule maps area-text keywords to a theme. Rules are checked in
// order, first hit wins.
type keywordRule struct {
	keywords []string
	theme    domain.Theme
}

var areaKeywordRules = []keywordRule{
	{
		keywords: []string{
			"schulgemeinschaft", "vertrauen", "respekt", "unterstützung", "hilfe",
			"umgang", "atmosphäre", "gemeinschaft", "geschätzt", "kultur", "schulklima",
		},
		theme: themeAtmosphere,
	},
	{
		keywords: []string{
			"unterricht", "beruflich", "ziele", "inhalte", "methodisch", "lernen",
			"lernbedürfnisse", "arbeitsaufträge", "anspruchsvoll", "kompetent",
			"begeistern", "leistungsbeurteilung", "lernumgebung",
		},
		theme: themeTeaching,
	},
	{
		keywords: []string{
			"rückmeldung", "feedback", "auswertung", "vereinbarung", "maßnahmen",
		},
		theme: themeFeedback,
	},
}

// programs lists the known cohort labels in rule order. File-name matching
// walks this list and stops on the first keyword hit, so ordering doubles
// as priority.
var programs = []struct {
	keywords []string
	info     domain.ProgramInfo
}{
	{
		keywords: []string{"BM", "BÜROMANAGEMENT"},
		info:     domain.ProgramInfo{Label: "BM (Büromanagement)", Short: "BM", Color: "#3498db", Description: "Büromanagement"},
	},
	{
		keywords: []string{"VK", "VERANSTALTUNG"},
		info:     domain.ProgramInfo{Label: "VK (Veranstaltungskaufleute)", Short: "VK", Color: "#e74c3c", Description: "Veranstaltungskaufleute"},
	},
	{
		keywords: []string{"GK"},
		info:     domain.ProgramInfo{Label: "GK", Short: "GK", Color: "#27ae60", Description: "Gesundheit"},
	},
	{
		keywords: []string{"IT"},
		info:     domain.ProgramInfo{Label: "IT", Short: "IT", Color: "#9b59b6", Description: "Informationstechnik"},
	},
}

// Registry resolves themes and program labels. It is stateless and safe for
// concurrent use.
type Registry struct{}

// NewRegistry creates a theme registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Assign resolves the theme for a question. Lookup order: exact question id,
// leading numeric segment, area-text keywords, unknown default.
func (r *Registry) Assign(questionID, areaText string) domain.Theme {
	if theme, ok := questionThemes[questionID]; ok {
		return theme
	}

	if main, _, found := strings.Cut(questionID, "."); found {
		if theme, ok := questionThemes[main]; ok {
			return theme
		}
	}

	if areaText != "" {
		lower := strings.ToLower(areaText)
		for _, rule := range areaKeywordRules {
			for _, keyword := range rule.keywords {
				if strings.Contains(lower, keyword) {
					return rule.theme
				}
			}
		}
	}

	return themeUnknown
}

// Themes returns all distinct themes of the static table, ordered by
// priority then label.
func (r *Registry) Themes() []domain.Theme {
	seen := make(map[string]domain.Theme)
	for _, theme := range questionThemes {
		seen[theme.Label] = theme
	}
	seen[themeUnknown.Label] = themeUnknown

	themes := make([]domain.Theme, 0, len(seen))
	for _, theme := range seen {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Priority != themes[j].Priority {
			return themes[i].Priority < themes[j].Priority
		}
		return themes[i].Label < themes[j].Label
	})
	return themes
}

// CoreQuestionIDs returns the question ids whose theme counts as a core
// metric, sorted.
func (r *Registry) CoreQuestionIDs() []string {
	var ids []string
	for id, theme := range questionThemes {
		if theme.CoreMetric {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// MatchProgram resolves a cohort label from a file name. Matching is
// case-insensitive substring search in fixed rule order; no match yields
// the unknown label.
func MatchProgram(filename string) string {
	upper := strings.ToUpper(filename)
	for _, p := range programs {
		for _, keyword := range p.keywords {
			if strings.Contains(upper, keyword) {
				return p.info.Label
			}
		}
	}
	return domain.ProgramUnknown
}

// Programs returns the known program descriptors in rule order.
func Programs() []domain.ProgramInfo {
	infos := make([]domain.ProgramInfo, 0, len(programs))
	for _, p := range programs {
		infos = append(infos, p.info)
	}
	return infos
}

// RatingCategory bands an average rating for display. Bands are half-open
// with 4.0 closing the top band; out-of-scale values map to unknown.
func RatingCategory(rating float64) domain.RatingCategory {
	switch {
	case rating < config.RatingMin || rating > config.RatingMax:
		return domain.CategoryUnknown
	case rating < config.CriticalBound:
		return domain.CategoryCritical
	case rating < config.NeedsImprovementBound:
		return domain.CategoryNeedsImprovement
	case rating < config.GoodBound:
		return domain.CategoryGood
	default:
		return domain.CategoryVeryGood
	}
}
