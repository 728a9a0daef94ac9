package readiness

import (
	"math"

	"innovation-backend/internal/strategy"
)

// QualityMetrics are the secondary ratios shown next to the readiness score.
type QualityMetrics struct {
	KPIObjectiveCoverage  int `json:"kpiObjectiveCoverage"`
	ActionPlanCoverage    int `json:"actionPlanCoverage"`
	RiskMitigationRate    int `json:"riskMitigationRate"`
	StakeholderEngagement int `json:"stakeholderEngagement"`
	BilingualCoverage     int `json:"bilingualCoverage"`
	OverallQuality        int `json:"overallQuality"`
}

// Quality computes the coverage, mitigation, engagement and bilingual ratios.
// Each ratio is independent of the others and of Score.
func Quality(p strategy.Plan) QualityMetrics {
	m := QualityMetrics{
		KPIObjectiveCoverage:  cappedRatio(len(p.KPIs), len(p.Objectives)),
		ActionPlanCoverage:    cappedRatio(len(p.ActionPlans), len(p.Objectives)),
		RiskMitigationRate:    riskMitigationRate(p.Risks),
		StakeholderEngagement: stakeholderEngagement(p.Stakeholders),
		BilingualCoverage:     bilingualCoverage(p),
	}
	sum := m.KPIObjectiveCoverage + m.ActionPlanCoverage + m.RiskMitigationRate +
		m.StakeholderEngagement + m.BilingualCoverage
	m.OverallQuality = int(math.Round(float64(sum) / 5))
	return m
}

func cappedRatio(count, objectives int) int {
	if objectives == 0 {
		return 0
	}
	return min(100, percent(count, objectives))
}

func riskMitigationRate(risks []strategy.Risk) int {
	if len(risks) == 0 {
		return 0
	}
	mitigated := 0
	for _, r := range risks {
		if strategy.HasText(r.Mitigation) {
			mitigated++
		}
	}
	return percent(mitigated, len(risks))
}

func stakeholderEngagement(stakeholders []strategy.Stakeholder) int {
	if len(stakeholders) == 0 {
		return 0
	}
	engaged := 0
	for _, s := range stakeholders {
		if strategy.HasText(s.EngagementStrategy) {
			engaged++
		}
	}
	return percent(engaged, len(stakeholders))
}

// bilingualCoverage is the share of populated primary-language fields that
// also carry a secondary-language value.
func bilingualCoverage(p strategy.Plan) int {
	pairs := [][2]string{
		{p.Name, p.NameAr},
		{p.Vision, p.VisionAr},
		{p.Mission, p.MissionAr},
	}
	for _, o := range p.Objectives {
		pairs = append(pairs, [2]string{o.Name, o.NameAr})
	}

	primary, secondary := 0, 0
	for _, pair := range pairs {
		if !strategy.HasText(pair[0]) {
			continue
		}
		primary++
		if strategy.HasText(pair[1]) {
			secondary++
		}
	}
	if primary == 0 {
		return 0
	}
	return percent(secondary, primary)
}
