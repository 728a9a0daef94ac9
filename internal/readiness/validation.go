package readiness

import "innovation-backend/internal/strategy"

// SubmitThreshold is the minimum readiness score required to submit a plan.
const SubmitThreshold = 40

// Issue severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Issue is a single submission-gate finding. Step points at the wizard step
// that fixes it.
type Issue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Section  string `json:"section"`
	Step     int    `json:"step"`
}

// Validation is the outcome of the submission gate.
type Validation struct {
	Issues        []Issue `json:"issues"`
	CriticalCount int     `json:"criticalCount"`
	WarningCount  int     `json:"warningCount"`
	Score         int     `json:"score"`
	CanSubmit     bool    `json:"canSubmit"`
}

type rule struct {
	code     string
	severity string
	section  string
	message  string
	failed   func(p strategy.Plan) bool
}

// rules are evaluated in order and independently of each other.
var rules = []rule{
	{
		code: "missing_name", severity: SeverityCritical, section: SectionContext,
		message: "Plan name is required",
		failed:  func(p strategy.Plan) bool { return !strategy.HasText(p.Name) },
	},
	{
		code: "missing_vision", severity: SeverityCritical, section: SectionVision,
		message: "Vision statement is required",
		failed:  func(p strategy.Plan) bool { return !strategy.HasText(p.Vision) },
	},
	{
		code: "missing_mission", severity: SeverityCritical, section: SectionVision,
		message: "Mission statement is required",
		failed:  func(p strategy.Plan) bool { return !strategy.HasText(p.Mission) },
	},
	{
		code: "no_objectives", severity: SeverityCritical, section: SectionObjectives,
		message: "At least one objective is required",
		failed:  func(p strategy.Plan) bool { return len(p.Objectives) < 1 },
	},
	{
		code: "few_objectives", severity: SeverityWarning, section: SectionObjectives,
		message: "Plans usually define at least 3 objectives",
		failed:  func(p strategy.Plan) bool { return len(p.Objectives) < 3 },
	},
	{
		code: "no_kpis", severity: SeverityWarning, section: SectionKPIs,
		message: "No KPIs defined",
		failed:  func(p strategy.Plan) bool { return len(p.KPIs) == 0 },
	},
	{
		code: "no_risks", severity: SeverityWarning, section: SectionRisks,
		message: "No risks identified",
		failed:  func(p strategy.Plan) bool { return len(p.Risks) == 0 },
	},
	{
		code: "no_stakeholders", severity: SeverityWarning, section: SectionStakeholders,
		message: "No stakeholders identified",
		failed:  func(p strategy.Plan) bool { return len(p.Stakeholders) == 0 },
	},
}

// Validate runs the submission gate. A plan can be submitted when it has no
// critical issues and its readiness score reaches SubmitThreshold.
func Validate(p strategy.Plan) Validation {
	v := Validation{Issues: []Issue{}}
	for _, r := range rules {
		if !r.failed(p) {
			continue
		}
		v.Issues = append(v.Issues, Issue{
			Code:     r.code,
			Severity: r.severity,
			Message:  r.message,
			Section:  r.section,
			Step:     StepFor(r.section),
		})
		if r.severity == SeverityCritical {
			v.CriticalCount++
		} else {
			v.WarningCount++
		}
	}
	v.Score = Score(p).Score
	v.CanSubmit = v.CriticalCount == 0 && v.Score >= SubmitThreshold
	return v
}
