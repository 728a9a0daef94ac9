// Package coverage matches templates against the taxonomy catalog and reports
// which entries have no template yet.
package coverage

import (
	"math"
	"strings"

	"innovation-backend/internal/taxonomy"
)

// Template is the searchable view of a template record.
type Template struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NameAr        string   `json:"name_ar,omitempty"`
	Description   string   `json:"description,omitempty"`
	DescriptionAr string   `json:"description_ar,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	TargetSectors []string `json:"target_sectors,omitempty"`
	TemplateType  string   `json:"template_type,omitempty"`
}

// searchText is the lowercase concatenation of every searchable field.
func (t Template) searchText() string {
	parts := make([]string, 0, 4+len(t.Tags)+len(t.TargetSectors))
	parts = append(parts, t.Name, t.NameAr, t.Description, t.DescriptionAr)
	parts = append(parts, t.Tags...)
	parts = append(parts, t.TargetSectors...)
	return strings.ToLower(strings.Join(parts, " "))
}

type EntryCoverage struct {
	Entry            taxonomy.Entry `json:"entry"`
	Covered          bool           `json:"covered"`
	MatchedTemplates []Template     `json:"matched_templates"`
}

type CategoryCoverage struct {
	Category taxonomy.Category `json:"category"`
	Entries  []EntryCoverage   `json:"entries"`
	Covered  int               `json:"covered"`
	Total    int               `json:"total"`
}

// GapRecommendation is a canned recommendation annotated with the gap it fills.
type GapRecommendation struct {
	taxonomy.Recommendation
	Category taxonomy.Category `json:"category"`
	GapName  string            `json:"gap_name"`
}

type Result struct {
	Categories      []CategoryCoverage                     `json:"categories"`
	OverallScore    int                                    `json:"overall_score"`
	Gaps            map[taxonomy.Category][]taxonomy.Entry `json:"gaps"`
	Recommendations []GapRecommendation                    `json:"recommendations"`
}

// Entry returns the coverage of a single taxonomy id.
func (r Result) Entry(id string) (EntryCoverage, bool) {
	for _, c := range r.Categories {
		for _, e := range c.Entries {
			if e.Entry.ID == id {
				return e, true
			}
		}
	}
	return EntryCoverage{}, false
}

// GapCount is the number of uncovered entries across all categories.
func (r Result) GapCount() int {
	n := 0
	for _, g := range r.Gaps {
		n += len(g)
	}
	return n
}

// Analyze recomputes coverage from scratch. It never fails; absent fields
// count as empty text.
func Analyze(catalog *taxonomy.Catalog, templates []Template) Result {
	texts := make([]string, len(templates))
	for i, t := range templates {
		texts[i] = t.searchText()
	}

	res := Result{
		Categories:      make([]CategoryCoverage, 0, len(taxonomy.Categories())),
		Gaps:            make(map[taxonomy.Category][]taxonomy.Entry, len(taxonomy.Categories())),
		Recommendations: []GapRecommendation{},
	}
	covered, total := 0, 0
	for _, cat := range taxonomy.Categories() {
		cc := CategoryCoverage{Category: cat, Entries: []EntryCoverage{}}
		gaps := []taxonomy.Entry{}
		for _, entry := range catalog.Entries(cat) {
			ec := EntryCoverage{Entry: entry, MatchedTemplates: []Template{}}
			keywords := normalizeKeywords(entry.Keywords)
			for i, text := range texts {
				if matchesAny(text, keywords) {
					ec.MatchedTemplates = append(ec.MatchedTemplates, templates[i])
				}
			}
			ec.Covered = len(ec.MatchedTemplates) > 0
			if ec.Covered {
				cc.Covered++
			} else {
				gaps = append(gaps, entry)
				if rec, ok := catalog.RecommendationFor(entry.ID); ok {
					res.Recommendations = append(res.Recommendations, GapRecommendation{
						Recommendation: rec,
						Category:       cat,
						GapName:        entry.Name,
					})
				}
			}
			cc.Entries = append(cc.Entries, ec)
		}
		cc.Total = len(cc.Entries)
		covered += cc.Covered
		total += cc.Total
		res.Categories = append(res.Categories, cc)
		res.Gaps[cat] = gaps
	}
	if total > 0 {
		res.OverallScore = int(math.Round(100 * float64(covered) / float64(total)))
	}
	return res
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
