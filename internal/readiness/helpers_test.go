package readiness

import "innovation-backend/internal/strategy"

func completePlan() strategy.Plan {
	f := []strategy.Factor{{Title: "item"}}
	return strategy.Plan{
		Name:        "Smart Mobility 2030",
		NameAr:      "التنقل الذكي",
		Description: "Municipal mobility strategy",
		Vision:      "Seamless mobility for every resident",
		VisionAr:    "تنقل سلس",
		Mission:     "Deliver integrated transport services",
		MissionAr:   "تقديم خدمات نقل متكاملة",
		Stakeholders: []strategy.Stakeholder{
			{Name: "Residents", EngagementStrategy: "surveys"},
			{Name: "Transport authority", EngagementStrategy: "steering committee"},
			{Name: "Operators", EngagementStrategy: "workshops"},
		},
		Pestel: strategy.PESTEL{Political: f, Economic: f, Social: f},
		SWOT:   strategy.SWOT{Strengths: f, Weaknesses: f, Opportunities: f, Threats: f},
		Scenarios: strategy.Scenarios{
			MostLikely: strategy.Scenario{Description: "steady adoption"},
		},
		Risks: []strategy.Risk{
			{Title: "Budget cuts", Mitigation: "phase funding"},
			{Title: "Vendor delay", Mitigation: "dual sourcing"},
			{Title: "Low adoption", Mitigation: "awareness campaign"},
		},
		Dependencies: []strategy.Dependency{{Name: "National data platform"}},
		Objectives: []strategy.Objective{
			{Name: "Reduce congestion", NameAr: "تقليل الازدحام"},
			{Name: "Increase transit ridership", NameAr: "زيادة الركاب"},
			{Name: "Digitise permits", NameAr: "رقمنة التصاريح"},
		},
		NationalAlignments: []strategy.Alignment{{ProgramID: "quality_of_life"}},
		KPIs: []strategy.KPI{
			{Name: "Average commute minutes"},
			{Name: "Daily riders"},
			{Name: "Permits issued online"},
		},
		ActionPlans:       []strategy.ActionPlan{{Title: "Launch BRT line"}},
		ResourcePlan:      strategy.ResourcePlan{Technology: []strategy.ResourceItem{{Name: "Traffic sensors"}}},
		Milestones:        []strategy.Milestone{{Title: "Pilot live"}},
		Governance:        strategy.Governance{Committees: []strategy.Committee{{Name: "Steering"}}},
		CommunicationPlan: strategy.CommunicationPlan{KeyMessages: []string{"Move smarter"}},
		ChangeManagement:  strategy.ChangeManagement{ReadinessAssessment: "Departments briefed"},
	}
}
