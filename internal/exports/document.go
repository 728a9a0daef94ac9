package exports

import (
	"fmt"
	"strconv"
	"time"

	"innovation-backend/internal/readiness"
	"innovation-backend/internal/strategy"
)

// Document is everything an export renders for one plan.
type Document struct {
	Title       string
	Status      string
	GeneratedAt time.Time
	Plan        strategy.Plan
	Readiness   readiness.Result
	Quality     readiness.QualityMetrics
}

// NewDocument scores p and captures the values every renderer shows.
func NewDocument(p strategy.Plan, status string, now time.Time) Document {
	p = p.Normalize()
	title := p.Name
	if title == "" {
		title = "Strategic Plan"
	}
	return Document{
		Title:       title,
		Status:      status,
		GeneratedAt: now.UTC(),
		Plan:        p,
		Readiness:   readiness.Score(p),
		Quality:     readiness.Quality(p),
	}
}

// table is one exported collection. Cells keep their native type so the
// workbook stores numbers as numbers.
type table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

func (d Document) summary() [][2]any {
	r, q := d.Readiness, d.Quality
	return [][2]any{
		{"Plan", d.Plan.Name},
		{"Status", d.Status},
		{"Vision", d.Plan.Vision},
		{"Mission", d.Plan.Mission},
		{"Readiness score", r.Score},
		{"Readiness level", r.Level.Label},
		{"Completed sections", fmt.Sprintf("%d/%d", r.CompletedCount, r.TotalCount)},
		{"Overall quality", q.OverallQuality},
		{"KPI objective coverage", q.KPIObjectiveCoverage},
		{"Action plan coverage", q.ActionPlanCoverage},
		{"Risk mitigation rate", q.RiskMitigationRate},
		{"Stakeholder engagement", q.StakeholderEngagement},
		{"Bilingual coverage", q.BilingualCoverage},
		{"Generated at", d.GeneratedAt.Format(time.RFC3339)},
	}
}

// tables lists every collection in export order.
func (d Document) tables() []table {
	p := d.Plan
	out := []table{
		{Name: "Objectives", Headers: []string{"ID", "Name", "Name (AR)", "Description", "Priority"}},
		{Name: "KPIs", Headers: []string{"Name", "Objective", "Baseline", "Target", "Unit", "Frequency"}},
		{Name: "Risks", Headers: []string{"Title", "Category", "Likelihood", "Impact", "Mitigation", "Owner"}},
		{Name: "Stakeholders", Headers: []string{"Name", "Role", "Influence", "Interest", "Engagement"}},
		{Name: "Action Plans", Headers: []string{"Title", "Objective", "Owner", "Start", "End", "Budget", "Status"}},
		{Name: "Milestones", Headers: []string{"Title", "Due", "Phase", "Status", "Deliverable"}},
		{Name: "Alignments", Headers: []string{"Program", "Objective", "Contribution"}},
	}
	for _, o := range p.Objectives {
		out[0].Rows = append(out[0].Rows, []any{o.ID, o.Name, o.NameAr, o.Description, o.Priority})
	}
	for _, k := range p.KPIs {
		out[1].Rows = append(out[1].Rows, []any{k.Name, k.ObjectiveID, k.Baseline, k.Target, k.Unit, k.Frequency})
	}
	for _, r := range p.Risks {
		out[2].Rows = append(out[2].Rows, []any{r.Title, r.Category, r.Likelihood, r.Impact, r.Mitigation, r.Owner})
	}
	for _, s := range p.Stakeholders {
		out[3].Rows = append(out[3].Rows, []any{s.Name, s.Role, s.Influence, s.Interest, s.EngagementStrategy})
	}
	for _, a := range p.ActionPlans {
		out[4].Rows = append(out[4].Rows, []any{a.Title, a.ObjectiveID, a.Owner, a.StartDate, a.EndDate, a.Budget, a.Status})
	}
	for _, m := range p.Milestones {
		out[5].Rows = append(out[5].Rows, []any{m.Title, m.DueDate, m.PhaseID, m.Status, m.Deliverable})
	}
	for _, a := range p.NationalAlignments {
		out[6].Rows = append(out[6].Rows, []any{a.ProgramID, a.ObjectiveID, a.Contribution})
	}
	return out
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// Render produces the export bytes for f.
func Render(f Format, d Document) ([]byte, error) {
	switch f {
	case FormatPDF:
		return renderPDF(d)
	case FormatXLSX:
		return renderXLSX(d)
	}
	return nil, ErrInvalidFormat
}
