package coverage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovation-backend/internal/taxonomy"
)

const testCatalog = `
service_domains:
  - id: waste
    name: Waste
    keywords: [Recycling, landfill]
  - id: water
    name: Water
    keywords: [water]
innovation_areas:
  - id: ai
    name: AI
    keywords: [machine learning, ذكاء]
vision_programs:
  - id: qol
    name: Quality of Life
    keywords: [livability]
template_types:
  - id: pilot
    name: Pilot
recommendations:
  - gap_id: water
    title: Water template
    template_type: pilot
    priority: high
  - gap_id: waste
    title: Waste template
    template_type: pilot
    priority: low
`

func loadCatalog(t *testing.T) *taxonomy.Catalog {
	t.Helper()
	c, err := taxonomy.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

func TestAnalyzeNoTemplates(t *testing.T) {
	res := Analyze(loadCatalog(t), nil)

	assert.Equal(t, 0, res.OverallScore)
	assert.Equal(t, 4, res.GapCount())
	assert.Len(t, res.Gaps[taxonomy.CategoryServiceDomains], 2)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "waste", res.Recommendations[0].GapID)
	assert.Equal(t, taxonomy.CategoryServiceDomains, res.Recommendations[0].Category)
	assert.Equal(t, "Waste", res.Recommendations[0].GapName)
}

func TestAnalyzeTagOnlyMatchCovers(t *testing.T) {
	tpl := Template{
		ID:          "t1",
		Name:        "Neighbourhood programme",
		Description: "Generic description",
		Tags:        []string{"RECYCLING drive"},
	}

	res := Analyze(loadCatalog(t), []Template{tpl})

	ec, ok := res.Entry("waste")
	require.True(t, ok)
	assert.True(t, ec.Covered)
	assert.Equal(t, []Template{tpl}, ec.MatchedTemplates)

	for _, rec := range res.Recommendations {
		assert.NotEqual(t, "waste", rec.GapID)
	}
}

func TestAnalyzeTargetSectorAndArabicMatch(t *testing.T) {
	res := Analyze(loadCatalog(t), []Template{
		{ID: "t1", TargetSectors: []string{"water"}},
		{ID: "t2", NameAr: "الذكاء الاصطناعي"},
	})

	water, _ := res.Entry("water")
	ai, _ := res.Entry("ai")
	assert.True(t, water.Covered)
	assert.True(t, ai.Covered)
	assert.Equal(t, "t2", ai.MatchedTemplates[0].ID)
	// 2 of 4 entries covered
	assert.Equal(t, 50, res.OverallScore)
}

func TestAnalyzeOneTemplateCanCoverManyEntries(t *testing.T) {
	res := Analyze(loadCatalog(t), []Template{
		{ID: "t1", Description: "Landfill sensors with machine learning for livability"},
	})
	assert.Equal(t, 75, res.OverallScore)
	assert.Equal(t, []taxonomy.Entry{{ID: "water", Name: "Water", Keywords: []string{"water"}}}, res.Gaps[taxonomy.CategoryServiceDomains])
	assert.Empty(t, res.Gaps[taxonomy.CategoryInnovationAreas])
	assert.Empty(t, res.Gaps[taxonomy.CategoryVisionPrograms])
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	catalog := taxonomy.Default()
	templates := []Template{
		{ID: "a", Name: "Smart parking pilot", Tags: []string{"iot", "mobility"}},
		{ID: "b", Name: "Open data portal", TargetSectors: []string{"citizen_services"}},
		{ID: "c", NameAr: "برنامج جودة الحياة"},
	}

	first := Analyze(catalog, templates)
	second := Analyze(catalog, templates)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("analysis not idempotent (-first +second):\n%s", diff)
	}
}

func TestAnalyzeMatchRequiresKeywordSubstring(t *testing.T) {
	catalog := loadCatalog(t)
	res := Analyze(catalog, []Template{{ID: "t1", Name: "Recycl ing"}})
	waste, _ := res.Entry("waste")
	assert.False(t, waste.Covered)
}

func TestAnalyzeDefaultCatalogScoreBounds(t *testing.T) {
	res := Analyze(taxonomy.Default(), []Template{{ID: "x", Description: "water waste transport"}})
	assert.GreaterOrEqual(t, res.OverallScore, 0)
	assert.LessOrEqual(t, res.OverallScore, 100)
	assert.Equal(t, taxonomy.Default().TotalEntries(), res.GapCount()+coveredCount(res))
}

func coveredCount(res Result) int {
	n := 0
	for _, c := range res.Categories {
		n += c.Covered
	}
	return n
}
