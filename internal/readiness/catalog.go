package readiness

import "innovation-backend/internal/strategy"

// Section keys, in wizard step order.
const (
	SectionContext       = "context"
	SectionVision        = "vision"
	SectionStakeholders  = "stakeholders"
	SectionPestel        = "pestel"
	SectionSWOT          = "swot"
	SectionScenarios     = "scenarios"
	SectionRisks         = "risks"
	SectionDependencies  = "dependencies"
	SectionObjectives    = "objectives"
	SectionAlignments    = "alignments"
	SectionKPIs          = "kpis"
	SectionActions       = "actions"
	SectionResources     = "resources"
	SectionTimeline      = "timeline"
	SectionGovernance    = "governance"
	SectionCommunication = "communication"
	SectionChange        = "change"
)

// SectionDefinition describes how one plan sub-structure contributes to the
// weighted completeness score.
type SectionDefinition struct {
	Key         string
	Title       string
	Weight      int
	Threshold   int
	Requirement string
	complete    func(def SectionDefinition, p strategy.Plan) bool
}

// Complete evaluates the section predicate against a plan.
func (d SectionDefinition) Complete(p strategy.Plan) bool {
	if d.complete == nil {
		return false
	}
	return d.complete(d, p)
}

var catalog = []SectionDefinition{
	{
		Key: SectionContext, Title: "Context", Weight: 5,
		Requirement: "name and description",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			return strategy.HasText(p.Name) && strategy.HasText(p.Description)
		},
	},
	{
		Key: SectionVision, Title: "Vision & Mission", Weight: 10,
		Requirement: "vision and mission statements",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			return strategy.HasText(p.Vision) && strategy.HasText(p.Mission)
		},
	},
	{
		Key: SectionStakeholders, Title: "Stakeholders", Weight: 5, Threshold: 3,
		Requirement: "at least 3 stakeholders",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.Stakeholders) >= d.Threshold
		},
	},
	{
		Key: SectionPestel, Title: "PESTEL Analysis", Weight: 5, Threshold: 3,
		Requirement: "at least 3 PESTEL dimensions filled",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			filled := 0
			for _, dim := range p.Pestel.Dimensions() {
				if len(dim) > 0 {
					filled++
				}
			}
			return filled >= d.Threshold
		},
	},
	{
		Key: SectionSWOT, Title: "SWOT Analysis", Weight: 5, Threshold: 1,
		Requirement: "every SWOT quadrant has an entry",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			s := p.SWOT
			return len(s.Strengths) >= d.Threshold &&
				len(s.Weaknesses) >= d.Threshold &&
				len(s.Opportunities) >= d.Threshold &&
				len(s.Threats) >= d.Threshold
		},
	},
	{
		Key: SectionScenarios, Title: "Scenarios", Weight: 5,
		Requirement: "at least one described scenario",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			s := p.Scenarios
			return strategy.HasText(s.BestCase.Description) ||
				strategy.HasText(s.MostLikely.Description) ||
				strategy.HasText(s.WorstCase.Description)
		},
	},
	{
		Key: SectionRisks, Title: "Risks", Weight: 5, Threshold: 3,
		Requirement: "at least 3 risks",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.Risks) >= d.Threshold
		},
	},
	{
		Key: SectionDependencies, Title: "Dependencies & Constraints", Weight: 3, Threshold: 1,
		Requirement: "a dependency or a constraint",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.Dependencies) >= d.Threshold || len(p.Constraints) >= d.Threshold
		},
	},
	{
		Key: SectionObjectives, Title: "Objectives", Weight: 15, Threshold: 3,
		Requirement: "at least 3 objectives",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.Objectives) >= d.Threshold
		},
	},
	{
		Key: SectionAlignments, Title: "National Alignment", Weight: 5, Threshold: 1,
		Requirement: "at least one national alignment",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.NationalAlignments) >= d.Threshold
		},
	},
	{
		Key: SectionKPIs, Title: "KPIs", Weight: 10,
		Requirement: "at least one KPI per objective",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			return len(p.KPIs) > 0 && len(p.KPIs) >= len(p.Objectives)
		},
	},
	{
		Key: SectionActions, Title: "Action Plans", Weight: 8, Threshold: 1,
		Requirement: "at least one action plan",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.ActionPlans) >= d.Threshold
		},
	},
	{
		Key: SectionResources, Title: "Resources", Weight: 5,
		Requirement: "a resource category with entries",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			r := p.ResourcePlan
			return len(r.HR) > 0 || len(r.Technology) > 0 || len(r.Infrastructure) > 0 || len(r.Budget) > 0
		},
	},
	{
		Key: SectionTimeline, Title: "Timeline", Weight: 5, Threshold: 1,
		Requirement: "a phase or a milestone",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.Phases) >= d.Threshold || len(p.Milestones) >= d.Threshold
		},
	},
	{
		Key: SectionGovernance, Title: "Governance", Weight: 4, Threshold: 1,
		Requirement: "a committee or a role",
		complete: func(d SectionDefinition, p strategy.Plan) bool {
			return len(p.Governance.Committees) >= d.Threshold || len(p.Governance.Roles) >= d.Threshold
		},
	},
	{
		Key: SectionCommunication, Title: "Communication", Weight: 3,
		Requirement: "key messages or channels",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			c := p.CommunicationPlan
			return len(c.KeyMessages) > 0 || len(c.InternalChannels) > 0 || len(c.ExternalChannels) > 0
		},
	},
	{
		Key: SectionChange, Title: "Change Management", Weight: 2,
		Requirement: "training, stakeholder impacts or a readiness assessment",
		complete: func(_ SectionDefinition, p strategy.Plan) bool {
			c := p.ChangeManagement
			return len(c.TrainingPlan) > 0 || len(c.StakeholderImpacts) > 0 || strategy.HasText(c.ReadinessAssessment)
		},
	},
}

// Catalog returns a copy of the fixed section catalog in wizard order.
func Catalog() []SectionDefinition {
	out := make([]SectionDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// TotalWeight is the sum of all section weights.
func TotalWeight() int {
	total := 0
	for _, def := range catalog {
		total += def.Weight
	}
	return total
}

// StepFor returns the 1-based wizard step that edits the given section, or 0.
func StepFor(key string) int {
	for i, def := range catalog {
		if def.Key == key {
			return i + 1
		}
	}
	return 0
}
