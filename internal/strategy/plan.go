package strategy

import "strings"

// Plan is the strategic-plan draft authored by the wizard. Every sub-structure
// is optional; absence is scored as incomplete, never as an error.
type Plan struct {
	Name          string `json:"name" yaml:"name"`
	NameAr        string `json:"name_ar,omitempty" yaml:"name_ar,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionAr string `json:"description_ar,omitempty" yaml:"description_ar,omitempty"`
	Vision        string `json:"vision,omitempty" yaml:"vision,omitempty"`
	VisionAr      string `json:"vision_ar,omitempty" yaml:"vision_ar,omitempty"`
	Mission       string `json:"mission,omitempty" yaml:"mission,omitempty"`
	MissionAr     string `json:"mission_ar,omitempty" yaml:"mission_ar,omitempty"`

	Stakeholders       []Stakeholder     `json:"stakeholders" yaml:"stakeholders,omitempty"`
	Pestel             PESTEL            `json:"pestel" yaml:"pestel,omitempty"`
	SWOT               SWOT              `json:"swot" yaml:"swot,omitempty"`
	Scenarios          Scenarios         `json:"scenarios" yaml:"scenarios,omitempty"`
	Risks              []Risk            `json:"risks" yaml:"risks,omitempty"`
	Dependencies       []Dependency      `json:"dependencies" yaml:"dependencies,omitempty"`
	Constraints        []Constraint      `json:"constraints" yaml:"constraints,omitempty"`
	Objectives         []Objective       `json:"objectives" yaml:"objectives,omitempty"`
	NationalAlignments []Alignment       `json:"national_alignments" yaml:"national_alignments,omitempty"`
	KPIs               []KPI             `json:"kpis" yaml:"kpis,omitempty"`
	ActionPlans        []ActionPlan      `json:"action_plans" yaml:"action_plans,omitempty"`
	ResourcePlan       ResourcePlan      `json:"resource_plan" yaml:"resource_plan,omitempty"`
	Milestones         []Milestone       `json:"milestones" yaml:"milestones,omitempty"`
	Phases             []Phase           `json:"phases" yaml:"phases,omitempty"`
	Governance         Governance        `json:"governance" yaml:"governance,omitempty"`
	CommunicationPlan  CommunicationPlan `json:"communication_plan" yaml:"communication_plan,omitempty"`
	ChangeManagement   ChangeManagement  `json:"change_management" yaml:"change_management,omitempty"`
}

// Stakeholder is one row of the stakeholder analysis.
type Stakeholder struct {
	ID                 string `json:"id,omitempty" yaml:"id,omitempty"`
	Name               string `json:"name" yaml:"name"`
	Role               string `json:"role,omitempty" yaml:"role,omitempty"`
	Influence          string `json:"influence,omitempty" yaml:"influence,omitempty"`
	Interest           string `json:"interest,omitempty" yaml:"interest,omitempty"`
	EngagementStrategy string `json:"engagement_strategy,omitempty" yaml:"engagement_strategy,omitempty"`
}

// Factor is a single PESTEL or SWOT entry.
type Factor struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Impact      string `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// PESTEL groups the six environmental scan dimensions.
type PESTEL struct {
	Political     []Factor `json:"political" yaml:"political,omitempty"`
	Economic      []Factor `json:"economic" yaml:"economic,omitempty"`
	Social        []Factor `json:"social" yaml:"social,omitempty"`
	Technological []Factor `json:"technological" yaml:"technological,omitempty"`
	Environmental []Factor `json:"environmental" yaml:"environmental,omitempty"`
	Legal         []Factor `json:"legal" yaml:"legal,omitempty"`
}

// Dimensions returns the six PESTEL arrays in fixed order.
func (p PESTEL) Dimensions() [][]Factor {
	return [][]Factor{p.Political, p.Economic, p.Social, p.Technological, p.Environmental, p.Legal}
}

// SWOT holds the four analysis quadrants.
type SWOT struct {
	Strengths     []Factor `json:"strengths" yaml:"strengths,omitempty"`
	Weaknesses    []Factor `json:"weaknesses" yaml:"weaknesses,omitempty"`
	Opportunities []Factor `json:"opportunities" yaml:"opportunities,omitempty"`
	Threats       []Factor `json:"threats" yaml:"threats,omitempty"`
}

// Scenario describes one planning scenario.
type Scenario struct {
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Assumptions []string `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`
	Probability string   `json:"probability,omitempty" yaml:"probability,omitempty"`
}

// Scenarios holds the best, most likely and worst case.
type Scenarios struct {
	BestCase   Scenario `json:"best_case" yaml:"best_case,omitempty"`
	MostLikely Scenario `json:"most_likely" yaml:"most_likely,omitempty"`
	WorstCase  Scenario `json:"worst_case" yaml:"worst_case,omitempty"`
}

// Risk is a registered plan risk.
type Risk struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Title      string `json:"title" yaml:"title"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty"`
	Likelihood string `json:"likelihood,omitempty" yaml:"likelihood,omitempty"`
	Impact     string `json:"impact,omitempty" yaml:"impact,omitempty"`
	Mitigation string `json:"mitigation,omitempty" yaml:"mitigation,omitempty"`
	Owner      string `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// Dependency is an external dependency the plan relies on.
type Dependency struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Constraint limits how the plan can be executed.
type Constraint struct {
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Objective is a strategic objective.
type Objective struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	NameAr      string `json:"name_ar,omitempty" yaml:"name_ar,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Alignment links the plan to a national vision program.
type Alignment struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	ProgramID    string `json:"program_id" yaml:"program_id"`
	ObjectiveID  string `json:"objective_id,omitempty" yaml:"objective_id,omitempty"`
	Contribution string `json:"contribution,omitempty" yaml:"contribution,omitempty"`
}

// KPI is a measurable indicator, usually attached to an objective.
type KPI struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string  `json:"name" yaml:"name"`
	ObjectiveID string  `json:"objective_id,omitempty" yaml:"objective_id,omitempty"`
	Baseline    float64 `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Target      float64 `json:"target,omitempty" yaml:"target,omitempty"`
	Unit        string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Frequency   string  `json:"frequency,omitempty" yaml:"frequency,omitempty"`
}

// ActionPlan is a concrete initiative delivering an objective.
type ActionPlan struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string  `json:"title" yaml:"title"`
	ObjectiveID string  `json:"objective_id,omitempty" yaml:"objective_id,omitempty"`
	Owner       string  `json:"owner,omitempty" yaml:"owner,omitempty"`
	StartDate   string  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Budget      float64 `json:"budget,omitempty" yaml:"budget,omitempty"`
	Status      string  `json:"status,omitempty" yaml:"status,omitempty"`
}

// ResourceItem is one entry of a resource category.
type ResourceItem struct {
	Name     string  `json:"name" yaml:"name"`
	Quantity float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Cost     float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	Notes    string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ResourcePlan groups resource needs by category.
type ResourcePlan struct {
	HR             []ResourceItem `json:"hr" yaml:"hr,omitempty"`
	Technology     []ResourceItem `json:"technology" yaml:"technology,omitempty"`
	Infrastructure []ResourceItem `json:"infrastructure" yaml:"infrastructure,omitempty"`
	Budget         []ResourceItem `json:"budget" yaml:"budget,omitempty"`
}

// Milestone is a dated checkpoint on the plan timeline.
type Milestone struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	DueDate     string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	PhaseID     string `json:"phase_id,omitempty" yaml:"phase_id,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
	Deliverable string `json:"deliverable,omitempty" yaml:"deliverable,omitempty"`
}

// Phase is a contiguous stage of the plan timeline.
type Phase struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string `json:"name" yaml:"name"`
	StartDate string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// Committee is a governance body.
type Committee struct {
	Name             string   `json:"name" yaml:"name"`
	Chair            string   `json:"chair,omitempty" yaml:"chair,omitempty"`
	Members          []string `json:"members,omitempty" yaml:"members,omitempty"`
	MeetingFrequency string   `json:"meeting_frequency,omitempty" yaml:"meeting_frequency,omitempty"`
}

// Role is a governance role and its responsibilities.
type Role struct {
	Title            string   `json:"title" yaml:"title"`
	Responsibilities []string `json:"responsibilities,omitempty" yaml:"responsibilities,omitempty"`
}

// Governance describes decision-making structures.
type Governance struct {
	Committees []Committee `json:"committees" yaml:"committees,omitempty"`
	Roles      []Role      `json:"roles" yaml:"roles,omitempty"`
}

// CommunicationPlan lists messages and channels.
type CommunicationPlan struct {
	KeyMessages      []string `json:"key_messages" yaml:"key_messages,omitempty"`
	InternalChannels []string `json:"internal_channels" yaml:"internal_channels,omitempty"`
	ExternalChannels []string `json:"external_channels" yaml:"external_channels,omitempty"`
}

// TrainingItem is a training activity in the change plan.
type TrainingItem struct {
	Topic    string `json:"topic" yaml:"topic"`
	Audience string `json:"audience,omitempty" yaml:"audience,omitempty"`
}

// StakeholderImpact records how a group is affected by the change.
type StakeholderImpact struct {
	Group  string `json:"group" yaml:"group"`
	Impact string `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// ChangeManagement captures the change management approach.
type ChangeManagement struct {
	TrainingPlan        []TrainingItem      `json:"training_plan" yaml:"training_plan,omitempty"`
	StakeholderImpacts  []StakeholderImpact `json:"stakeholder_impacts" yaml:"stakeholder_impacts,omitempty"`
	ReadinessAssessment string              `json:"readiness_assessment,omitempty" yaml:"readiness_assessment,omitempty"`
}

// Normalize returns a copy of the plan with every absent collection replaced
// by an empty one, so callers and JSON consumers never see null arrays.
func (p Plan) Normalize() Plan {
	out := p
	out.Stakeholders = orEmpty(p.Stakeholders)
	out.Pestel = PESTEL{
		Political:     orEmpty(p.Pestel.Political),
		Economic:      orEmpty(p.Pestel.Economic),
		Social:        orEmpty(p.Pestel.Social),
		Technological: orEmpty(p.Pestel.Technological),
		Environmental: orEmpty(p.Pestel.Environmental),
		Legal:         orEmpty(p.Pestel.Legal),
	}
	out.SWOT = SWOT{
		Strengths:     orEmpty(p.SWOT.Strengths),
		Weaknesses:    orEmpty(p.SWOT.Weaknesses),
		Opportunities: orEmpty(p.SWOT.Opportunities),
		Threats:       orEmpty(p.SWOT.Threats),
	}
	out.Risks = orEmpty(p.Risks)
	out.Dependencies = orEmpty(p.Dependencies)
	out.Constraints = orEmpty(p.Constraints)
	out.Objectives = orEmpty(p.Objectives)
	out.NationalAlignments = orEmpty(p.NationalAlignments)
	out.KPIs = orEmpty(p.KPIs)
	out.ActionPlans = orEmpty(p.ActionPlans)
	out.ResourcePlan = ResourcePlan{
		HR:             orEmpty(p.ResourcePlan.HR),
		Technology:     orEmpty(p.ResourcePlan.Technology),
		Infrastructure: orEmpty(p.ResourcePlan.Infrastructure),
		Budget:         orEmpty(p.ResourcePlan.Budget),
	}
	out.Milestones = orEmpty(p.Milestones)
	out.Phases = orEmpty(p.Phases)
	out.Governance = Governance{
		Committees: orEmpty(p.Governance.Committees),
		Roles:      orEmpty(p.Governance.Roles),
	}
	out.CommunicationPlan = CommunicationPlan{
		KeyMessages:      orEmpty(p.CommunicationPlan.KeyMessages),
		InternalChannels: orEmpty(p.CommunicationPlan.InternalChannels),
		ExternalChannels: orEmpty(p.CommunicationPlan.ExternalChannels),
	}
	out.ChangeManagement.TrainingPlan = orEmpty(p.ChangeManagement.TrainingPlan)
	out.ChangeManagement.StakeholderImpacts = orEmpty(p.ChangeManagement.StakeholderImpacts)
	return out
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// HasText reports whether s contains anything besides whitespace.
func HasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// SWOT quadrant keys used when SWOT entries are stored one per row.
const (
	QuadrantStrengths     = "strengths"
	QuadrantWeaknesses    = "weaknesses"
	QuadrantOpportunities = "opportunities"
	QuadrantThreats       = "threats"
)

// SWOTItem is a single SWOT entry persisted on its own.
type SWOTItem struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Quadrant    string `json:"quadrant" yaml:"quadrant"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Impact      string `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// ValidQuadrant reports whether q names a SWOT quadrant.
func ValidQuadrant(q string) bool {
	switch q {
	case QuadrantStrengths, QuadrantWeaknesses, QuadrantOpportunities, QuadrantThreats:
		return true
	}
	return false
}

// GroupSWOT folds per-row entries into quadrants. Unknown quadrants are dropped.
func GroupSWOT(items []SWOTItem) SWOT {
	var out SWOT
	for _, it := range items {
		f := Factor{Title: it.Title, Description: it.Description, Impact: it.Impact}
		switch it.Quadrant {
		case QuadrantStrengths:
			out.Strengths = append(out.Strengths, f)
		case QuadrantWeaknesses:
			out.Weaknesses = append(out.Weaknesses, f)
		case QuadrantOpportunities:
			out.Opportunities = append(out.Opportunities, f)
		case QuadrantThreats:
			out.Threats = append(out.Threats, f)
		}
	}
	return out
}

// SplitSWOT is the inverse of GroupSWOT.
func SplitSWOT(s SWOT) []SWOTItem {
	var out []SWOTItem
	add := func(q string, fs []Factor) {
		for _, f := range fs {
			out = append(out, SWOTItem{Quadrant: q, Title: f.Title, Description: f.Description, Impact: f.Impact})
		}
	}
	add(QuadrantStrengths, s.Strengths)
	add(QuadrantWeaknesses, s.Weaknesses)
	add(QuadrantOpportunities, s.Opportunities)
	add(QuadrantThreats, s.Threats)
	return out
}

// IsEmpty reports whether no quadrant has entries.
func (s SWOT) IsEmpty() bool {
	return len(s.Strengths)+len(s.Weaknesses)+len(s.Opportunities)+len(s.Threats) == 0
}
