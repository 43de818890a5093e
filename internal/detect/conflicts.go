package detect

import (
	"fmt"
	"strings"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

// ConflictSeverity grades a detected contradiction between two answers.
type ConflictSeverity string

const (
	ConflictMinor    ConflictSeverity = "minor"
	ConflictModerate ConflictSeverity = "moderate"
	ConflictMajor    ConflictSeverity = "major"
)

// GapCategory maps conflict severity onto the gap taxonomy.
func (s ConflictSeverity) GapCategory() model.GapCategory {
	switch s {
	case ConflictMajor:
		return model.GapCritical
	case ConflictModerate:
		return model.GapImportant
	}
	return model.GapNiceToHave
}

// conflictRule pairs two answers whose co-occurrence of indicator phrases
// contradicts itself. LeftDomain == RightDomain for intra-domain rules. The
// table is fixed at compile time; matching is case-insensitive substring.
type conflictRule struct {
	Name          string
	LeftDomain    taxonomy.Domain
	LeftQuestion  string
	LeftPhrases   []string
	RightDomain   taxonomy.Domain
	RightQuestion string
	RightPhrases  []string
	Severity      ConflictSeverity
	Description   string
}

var conflictRules = []conflictRule{
	{
		Name:          "growth-vs-budget",
		LeftDomain:    taxonomy.DomainStrategicAlignment,
		LeftQuestion:  "sa-growth-targets",
		LeftPhrases:   []string{"aggressive", "double", "triple", "10x", "hypergrowth"},
		RightDomain:   taxonomy.DomainFinancialManagement,
		RightQuestion: "fm-budget-constraints",
		RightPhrases:  []string{"limited", "severely", "constrained", "tight", "no budget", "frozen"},
		Severity:      ConflictMajor,
		Description:   "aggressive growth targets conflict with severely limited budget",
	},
	{
		Name:          "runway-vs-growth",
		LeftDomain:    taxonomy.DomainFinancialManagement,
		LeftQuestion:  "fm-runway",
		LeftPhrases:   []string{"less than 6", "under 6", "3 months", "4 months", "5 months", "short runway"},
		RightDomain:   taxonomy.DomainStrategicAlignment,
		RightQuestion: "sa-growth-targets",
		RightPhrases:  []string{"aggressive", "double", "triple", "10x"},
		Severity:      ConflictMajor,
		Description:   "growth plan assumes investment the stated runway cannot fund",
	},
	{
		Name:          "hiring-vs-cost-control",
		LeftDomain:    taxonomy.DomainPeopleOrganization,
		LeftQuestion:  "po-key-roles",
		LeftPhrases:   []string{"rapid hiring", "aggressive hiring", "scaling the team", "doubling headcount"},
		RightDomain:   taxonomy.DomainFinancialManagement,
		RightQuestion: "fm-budget-constraints",
		RightPhrases:  []string{"hiring freeze", "headcount freeze", "frozen", "no new hires"},
		Severity:      ConflictModerate,
		Description:   "planned hiring contradicts the stated headcount freeze",
	},
	{
		Name:          "capacity-vs-pipeline",
		LeftDomain:    taxonomy.DomainOperationalExcellence,
		LeftQuestion:  "oe-capacity",
		LeftPhrases:   []string{"at capacity", "over capacity", "maxed out", "fully stretched"},
		RightDomain:   taxonomy.DomainRevenueEngine,
		RightQuestion: "re-pipeline",
		RightPhrases:  []string{"growing pipeline", "record pipeline", "doubling", "surging"},
		Severity:      ConflictModerate,
		Description:   "revenue pipeline growth exceeds stated delivery capacity",
	},
	{
		Name:          "automation-vs-bottlenecks",
		LeftDomain:    taxonomy.DomainOperationalExcellence,
		LeftQuestion:  "oe-core-processes",
		LeftPhrases:   []string{"fully automated", "completely automated", "no manual"},
		RightDomain:   taxonomy.DomainOperationalExcellence,
		RightQuestion: "oe-bottlenecks",
		RightPhrases:  []string{"manual", "by hand", "spreadsheet", "re-keyed"},
		Severity:      ConflictMinor,
		Description:   "processes described as fully automated while bottlenecks are manual",
	},
	{
		Name:          "data-quality-vs-trust",
		LeftDomain:    taxonomy.DomainTechnologyData,
		LeftQuestion:  "td-data-quality",
		LeftPhrases:   []string{"excellent", "very high", "fully trusted"},
		RightDomain:   taxonomy.DomainTechnologyData,
		RightQuestion: "td-systems-inventory",
		RightPhrases:  []string{"don't trust", "unreliable", "inconsistent", "duplicated"},
		Severity:      ConflictMinor,
		Description:   "data quality rated high while core systems are described as unreliable",
	},
	{
		Name:          "retention-vs-churn",
		LeftDomain:    taxonomy.DomainPeopleOrganization,
		LeftQuestion:  "po-retention",
		LeftPhrases:   []string{"excellent retention", "no attrition", "very low turnover"},
		RightDomain:   taxonomy.DomainCustomerSuccess,
		RightQuestion: "cs-churn-drivers",
		RightPhrases:  []string{"key people leaving", "lost our", "departures"},
		Severity:      ConflictModerate,
		Description:   "retention described as excellent while churn drivers cite departures",
	},
}

func matchesAny(text string, phrases []string) bool {
	lowered := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// Conflict is one fired rule, carried back to the detector for gap emission.
type Conflict struct {
	Rule        string
	Severity    ConflictSeverity
	Domain      taxonomy.Domain
	QuestionID  string
	Description string
}

// detectConflicts evaluates the full rule table against the assessment's
// answers. The gap is attributed to the left-hand domain of the rule.
func detectConflicts(a *model.Assessment) []Conflict {
	var out []Conflict
	for _, r := range conflictRules {
		left, ok := a.Response(r.LeftDomain, r.LeftQuestion)
		if !ok || left.Value.IsEmpty() {
			continue
		}
		right, ok := a.Response(r.RightDomain, r.RightQuestion)
		if !ok || right.Value.IsEmpty() {
			continue
		}
		if matchesAny(left.Value.AsText(), r.LeftPhrases) && matchesAny(right.Value.AsText(), r.RightPhrases) {
			out = append(out, Conflict{
				Rule:        r.Name,
				Severity:    r.Severity,
				Domain:      r.LeftDomain,
				QuestionID:  r.LeftQuestion,
				Description: r.Description,
			})
		}
	}
	return out
}

// CheckResponseConflicts replays the rule table with candidate replacing the
// stored answer for (domain, questionID). Callers use it to vet a gap
// resolution before it is written back into the assessment.
func CheckResponseConflicts(a *model.Assessment, domain taxonomy.Domain, questionID, candidate string) []Conflict {
	var out []Conflict
	read := func(d taxonomy.Domain, q string) (string, bool) {
		if d == domain && q == questionID {
			return candidate, strings.TrimSpace(candidate) != ""
		}
		qr, ok := a.Response(d, q)
		if !ok || qr.Value.IsEmpty() {
			return "", false
		}
		return qr.Value.AsText(), true
	}
	for _, r := range conflictRules {
		touches := (r.LeftDomain == domain && r.LeftQuestion == questionID) ||
			(r.RightDomain == domain && r.RightQuestion == questionID)
		if !touches {
			continue
		}
		left, ok := read(r.LeftDomain, r.LeftQuestion)
		if !ok {
			continue
		}
		right, ok := read(r.RightDomain, r.RightQuestion)
		if !ok {
			continue
		}
		if matchesAny(left, r.LeftPhrases) && matchesAny(right, r.RightPhrases) {
			out = append(out, Conflict{
				Rule:        r.Name,
				Severity:    r.Severity,
				Domain:      r.LeftDomain,
				QuestionID:  r.LeftQuestion,
				Description: r.Description,
			})
		}
	}
	return out
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s (%s): %s", c.Rule, c.Severity, c.Description)
}
