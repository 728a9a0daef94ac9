package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovation-backend/internal/strategy"
)

func TestCatalogWeightsSumToHundred(t *testing.T) {
	assert.Equal(t, 100, TotalWeight())
	assert.Len(t, Catalog(), 17)

	seen := map[string]bool{}
	for _, def := range Catalog() {
		assert.False(t, seen[def.Key], "duplicate key %s", def.Key)
		seen[def.Key] = true
		assert.Positive(t, def.Weight)
	}
}

func TestScoreEmptyPlan(t *testing.T) {
	res := Score(strategy.Plan{})

	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.CompletedCount)
	assert.Equal(t, 17, res.TotalCount)
	assert.Equal(t, "critical", res.Level.Key)
	assert.Len(t, res.Missing(), 17)
}

func TestScoreCompletePlan(t *testing.T) {
	res := Score(completePlan())

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, res.TotalCount, res.CompletedCount)
	assert.Equal(t, "excellent", res.Level.Key)
	assert.Empty(t, res.Missing())
}

func TestScoreDropsExactlyOneSection(t *testing.T) {
	cases := map[string]func(p *strategy.Plan){
		SectionContext:       func(p *strategy.Plan) { p.Description = "  " },
		SectionVision:        func(p *strategy.Plan) { p.Mission = "" },
		SectionStakeholders:  func(p *strategy.Plan) { p.Stakeholders = p.Stakeholders[:2] },
		SectionPestel:        func(p *strategy.Plan) { p.Pestel.Social = nil },
		SectionSWOT:          func(p *strategy.Plan) { p.SWOT.Threats = nil },
		SectionScenarios:     func(p *strategy.Plan) { p.Scenarios = strategy.Scenarios{} },
		SectionRisks:         func(p *strategy.Plan) { p.Risks = p.Risks[:2] },
		SectionDependencies:  func(p *strategy.Plan) { p.Dependencies = nil },
		SectionObjectives:    func(p *strategy.Plan) { p.Objectives = p.Objectives[:2] },
		SectionAlignments:    func(p *strategy.Plan) { p.NationalAlignments = nil },
		SectionActions:       func(p *strategy.Plan) { p.ActionPlans = nil },
		SectionResources:     func(p *strategy.Plan) { p.ResourcePlan = strategy.ResourcePlan{} },
		SectionTimeline:      func(p *strategy.Plan) { p.Milestones = nil },
		SectionGovernance:    func(p *strategy.Plan) { p.Governance = strategy.Governance{} },
		SectionCommunication: func(p *strategy.Plan) { p.CommunicationPlan = strategy.CommunicationPlan{} },
		SectionChange:        func(p *strategy.Plan) { p.ChangeManagement.ReadinessAssessment = "\t" },
		SectionKPIs:          func(p *strategy.Plan) { p.KPIs = p.KPIs[:2] },
	}

	weights := map[string]int{}
	for _, def := range Catalog() {
		weights[def.Key] = def.Weight
	}

	for key, mutate := range cases {
		t.Run(key, func(t *testing.T) {
			p := completePlan()
			mutate(&p)
			res := Score(p)

			assert.Equal(t, []string{key}, res.Missing())
			assert.Equal(t, 100-weights[key], res.Score)
			assert.Less(t, res.Score, 100)
		})
	}
}

func TestScoreConcreteScenario(t *testing.T) {
	f := []strategy.Factor{{Title: "x"}}
	p := strategy.Plan{
		Name:         "X",
		Vision:       "V",
		Mission:      "M",
		Objectives:   []strategy.Objective{{Name: "o1"}, {Name: "o2"}, {Name: "o3"}},
		KPIs:         []strategy.KPI{{Name: "k1"}, {Name: "k2"}, {Name: "k3"}},
		Stakeholders: []strategy.Stakeholder{{Name: "s1"}, {Name: "s2"}, {Name: "s3"}},
		Risks: []strategy.Risk{
			{Title: "r1", Mitigation: "m"},
			{Title: "r2", Mitigation: "m"},
			{Title: "r3", Mitigation: "m"},
		},
		SWOT: strategy.SWOT{Strengths: f, Weaknesses: f, Opportunities: f, Threats: f},
	}

	res := Score(p)

	complete := map[string]bool{}
	for _, s := range res.Sections {
		if s.Complete {
			complete[s.Key] = true
		}
	}
	assert.Equal(t, map[string]bool{
		SectionVision:       true,
		SectionStakeholders: true,
		SectionSWOT:         true,
		SectionRisks:        true,
		SectionObjectives:   true,
		SectionKPIs:         true,
	}, complete)
	// vision 10 + stakeholders 5 + swot 5 + risks 5 + objectives 15 + kpis 10 over 100.
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, 6, res.CompletedCount)
	assert.Equal(t, "needs_work", res.Level.Key)
}

func TestScoreThresholdMonotonicity(t *testing.T) {
	p := strategy.Plan{}
	res := Score(p)
	require.False(t, sectionComplete(res, SectionObjectives))

	for i := 0; i < 5; i++ {
		before := sectionComplete(Score(p), SectionObjectives)
		p.Objectives = append(p.Objectives, strategy.Objective{Name: "o"})
		after := sectionComplete(Score(p), SectionObjectives)
		assert.False(t, before && !after, "adding objective %d flipped section to incomplete", i+1)
	}
	assert.True(t, sectionComplete(Score(p), SectionObjectives))

	p = strategy.Plan{Stakeholders: []strategy.Stakeholder{{Name: "a"}, {Name: "b"}}}
	assert.False(t, sectionComplete(Score(p), SectionStakeholders))
	p.Stakeholders = append(p.Stakeholders, strategy.Stakeholder{Name: "c"})
	assert.True(t, sectionComplete(Score(p), SectionStakeholders))
}

func TestKPISectionRequiresOnePerObjective(t *testing.T) {
	tests := []struct {
		name       string
		objectives int
		kpis       int
		want       bool
	}{
		{name: "none", objectives: 0, kpis: 0, want: false},
		{name: "kpi without objectives", objectives: 0, kpis: 1, want: true},
		{name: "fewer kpis than objectives", objectives: 3, kpis: 2, want: false},
		{name: "equal", objectives: 3, kpis: 3, want: true},
		{name: "more kpis", objectives: 2, kpis: 5, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := strategy.Plan{
				Objectives: make([]strategy.Objective, tt.objectives),
				KPIs:       make([]strategy.KPI, tt.kpis),
			}
			assert.Equal(t, tt.want, sectionComplete(Score(p), SectionKPIs))
		})
	}
}

func TestPestelNeedsThreeDimensions(t *testing.T) {
	f := []strategy.Factor{{Title: "x"}}
	p := strategy.Plan{Pestel: strategy.PESTEL{Political: f, Legal: f}}
	assert.False(t, sectionComplete(Score(p), SectionPestel))

	p.Pestel.Environmental = f
	assert.True(t, sectionComplete(Score(p), SectionPestel))
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "good"},
		{75, "good"},
		{74, "fair"},
		{60, "fair"},
		{59, "needs_work"},
		{40, "needs_work"},
		{39, "critical"},
		{0, "critical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score).Key, "score %d", tt.score)
	}
}

func TestScoreStepsFollowCatalogOrder(t *testing.T) {
	res := Score(strategy.Plan{})
	for i, s := range res.Sections {
		assert.Equal(t, i+1, s.Step)
		assert.Equal(t, s.Step, StepFor(s.Key))
	}
	assert.Equal(t, 0, StepFor("unknown"))
}

func sectionComplete(res Result, key string) bool {
	for _, s := range res.Sections {
		if s.Key == key {
			return s.Complete
		}
	}
	return false
}
