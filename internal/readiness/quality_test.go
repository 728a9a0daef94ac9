package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"innovation-backend/internal/strategy"
)

func TestQualityEmptyPlanIsZero(t *testing.T) {
	assert.Equal(t, QualityMetrics{}, Quality(strategy.Plan{}))
}

func TestQualityCompletePlan(t *testing.T) {
	m := Quality(completePlan())

	assert.Equal(t, 100, m.KPIObjectiveCoverage)
	// one action plan for three objectives
	assert.Equal(t, 33, m.ActionPlanCoverage)
	assert.Equal(t, 100, m.RiskMitigationRate)
	assert.Equal(t, 100, m.StakeholderEngagement)
	assert.Equal(t, 100, m.BilingualCoverage)
	assert.Equal(t, 87, m.OverallQuality)
}

func TestQualityCoverageIsCapped(t *testing.T) {
	p := strategy.Plan{
		Objectives: make([]strategy.Objective, 2),
		KPIs:       make([]strategy.KPI, 5),
	}
	assert.Equal(t, 100, Quality(p).KPIObjectiveCoverage)
}

func TestQualityRatiosRound(t *testing.T) {
	p := strategy.Plan{
		Risks: []strategy.Risk{
			{Title: "a", Mitigation: "plan"},
			{Title: "b", Mitigation: " "},
			{Title: "c"},
		},
		Stakeholders: []strategy.Stakeholder{
			{Name: "a", EngagementStrategy: "x"},
			{Name: "b", EngagementStrategy: "y"},
			{Name: "c"},
		},
	}
	m := Quality(p)
	assert.Equal(t, 33, m.RiskMitigationRate)
	assert.Equal(t, 67, m.StakeholderEngagement)
	assert.Equal(t, 0, m.KPIObjectiveCoverage)
	assert.Equal(t, 20, m.OverallQuality)
}

func TestBilingualCoverage(t *testing.T) {
	tests := []struct {
		name string
		plan strategy.Plan
		want int
	}{
		{
			name: "no primary fields",
			plan: strategy.Plan{NameAr: "اسم", VisionAr: "رؤية"},
			want: 0,
		},
		{
			name: "two of three paired",
			plan: strategy.Plan{
				Name: "n", NameAr: "ن",
				Vision:     "v",
				Objectives: []strategy.Objective{{Name: "o", NameAr: "ه"}},
			},
			want: 67,
		},
		{
			name: "secondary without primary is ignored",
			plan: strategy.Plan{Name: "n", NameAr: "ن", MissionAr: "م"},
			want: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quality(tt.plan).BilingualCoverage)
		})
	}
}
