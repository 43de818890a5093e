package taxonomy

// CriticalQuestions returns the question IDs that must carry a non-empty
// answer before a domain can be considered minimally complete. Question bank
// content itself lives outside the engine; only the IDs matter here.
func CriticalQuestions(d Domain) []string {
	return criticalQuestions[d]
}

var criticalQuestions = map[Domain][]string{
	DomainStrategicAlignment: {
		"sa-vision", "sa-growth-targets", "sa-competitive-position",
	},
	DomainFinancialManagement: {
		"fm-revenue-model", "fm-runway", "fm-budget-constraints",
	},
	DomainRevenueEngine: {
		"re-pipeline", "re-pricing", "re-channel-mix",
	},
	DomainOperationalExcellence: {
		"oe-core-processes", "oe-bottlenecks", "oe-capacity",
	},
	DomainPeopleOrganization: {
		"po-org-structure", "po-key-roles", "po-retention",
	},
	DomainTechnologyData: {
		"td-systems-inventory", "td-data-quality", "td-scalability",
	},
	DomainCustomerExperience: {
		"cx-journey", "cx-satisfaction-metrics",
	},
	DomainSupplyChain: {
		"sc-suppliers", "sc-lead-times",
	},
	DomainRiskCompliance: {
		"rc-regulatory-obligations", "rc-risk-register", "rc-controls",
	},
	DomainPartnerships: {
		"pa-key-partners", "pa-dependency-risk",
	},
	DomainCustomerSuccess: {
		"cs-onboarding", "cs-churn-drivers",
	},
	DomainChangeManagement: {
		"cm-change-history", "cm-readiness",
	},
}

// StaticFollowUps returns the canned follow-up questions used when the
// completion service is unavailable or returns unparsable content.
func StaticFollowUps(d Domain) []string {
	if qs, ok := staticFollowUps[d]; ok {
		return qs
	}
	return genericFollowUps
}

var genericFollowUps = []string{
	"Can you expand on this answer with a concrete example from the last quarter?",
	"What would need to change for this area to stop being a constraint?",
}

var staticFollowUps = map[Domain][]string{
	DomainStrategicAlignment: {
		"What is the single metric your growth plan is anchored on, and where is it today?",
		"Which strategic bet would you abandon first if funding tightened?",
	},
	DomainFinancialManagement: {
		"What is your current monthly burn and how many months of runway remain?",
		"Which budget line is hardest to defend, and why?",
	},
	DomainRevenueEngine: {
		"Walk through how your last three customers were won.",
		"Which channel has the best payback period right now?",
	},
	DomainOperationalExcellence: {
		"Which process breaks first when volume doubles?",
		"What work is still done manually that you expected to have automated?",
	},
	DomainPeopleOrganization: {
		"Which role, if vacated tomorrow, would hurt the most?",
		"How do you currently measure team capacity against the plan?",
	},
	DomainTechnologyData: {
		"Which system do you trust least, and what depends on it?",
		"Where does data get re-keyed by hand between systems?",
	},
	DomainRiskCompliance: {
		"Which regulatory obligation consumes the most management attention?",
		"When was your risk register last reviewed, and by whom?",
	},
}
