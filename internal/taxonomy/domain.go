package taxonomy

import "fmt"

// Domain identifies one of the fixed business functional areas covered by an
// assessment. The set is closed: unknown strings must be rejected at the
// boundary, never treated as a silently-empty lookup.
type Domain string

const (
	DomainStrategicAlignment    Domain = "strategic-alignment"
	DomainFinancialManagement   Domain = "financial-management"
	DomainRevenueEngine         Domain = "revenue-engine"
	DomainOperationalExcellence Domain = "operational-excellence"
	DomainPeopleOrganization    Domain = "people-organization"
	DomainTechnologyData        Domain = "technology-data"
	DomainCustomerExperience    Domain = "customer-experience"
	DomainSupplyChain           Domain = "supply-chain"
	DomainRiskCompliance        Domain = "risk-compliance"
	DomainPartnerships          Domain = "partnerships"
	DomainCustomerSuccess       Domain = "customer-success"
	DomainChangeManagement      Domain = "change-management"
)

// AllDomains lists every assessed domain in canonical order.
var AllDomains = []Domain{
	DomainStrategicAlignment,
	DomainFinancialManagement,
	DomainRevenueEngine,
	DomainOperationalExcellence,
	DomainPeopleOrganization,
	DomainTechnologyData,
	DomainCustomerExperience,
	DomainSupplyChain,
	DomainRiskCompliance,
	DomainPartnerships,
	DomainCustomerSuccess,
	DomainChangeManagement,
}

// Group buckets domains for triage coverage checks: a valid critical-domain
// selection must touch at least one of the strategy, operations, or people
// groups.
type Group string

const (
	GroupStrategy   Group = "strategy"
	GroupOperations Group = "operations"
	GroupPeople     Group = "people"
	GroupMarket     Group = "market"
)

var domainGroups = map[Domain]Group{
	DomainStrategicAlignment:    GroupStrategy,
	DomainFinancialManagement:   GroupStrategy,
	DomainRevenueEngine:         GroupMarket,
	DomainOperationalExcellence: GroupOperations,
	DomainPeopleOrganization:    GroupPeople,
	DomainTechnologyData:        GroupOperations,
	DomainCustomerExperience:    GroupMarket,
	DomainSupplyChain:           GroupOperations,
	DomainRiskCompliance:        GroupOperations,
	DomainPartnerships:          GroupMarket,
	DomainCustomerSuccess:       GroupMarket,
	DomainChangeManagement:      GroupPeople,
}

// domainWeights drive the overall completeness average and gap ordering.
// Risk/compliance is weighted highest: a thin answer there hides the most
// delivery risk.
var domainWeights = map[Domain]float64{
	DomainStrategicAlignment:    1.2,
	DomainFinancialManagement:   1.2,
	DomainRevenueEngine:         1.1,
	DomainOperationalExcellence: 1.1,
	DomainPeopleOrganization:    1.0,
	DomainTechnologyData:        1.0,
	DomainCustomerExperience:    0.9,
	DomainSupplyChain:           0.8,
	DomainRiskCompliance:        1.4,
	DomainPartnerships:          0.7,
	DomainCustomerSuccess:       0.9,
	DomainChangeManagement:      0.8,
}

// DefaultCriticalDomains is the fixed triad used when an AI triage selection
// cannot be trusted at all.
var DefaultCriticalDomains = []Domain{
	DomainStrategicAlignment,
	DomainFinancialManagement,
	DomainOperationalExcellence,
}

// IsKnown reports whether d names one of the assessed domains.
func (d Domain) IsKnown() bool {
	_, ok := domainGroups[d]
	return ok
}

// Group returns the coverage group the domain belongs to.
func (d Domain) Group() Group {
	return domainGroups[d]
}

// Weight returns the domain's weight in the overall completeness average.
func (d Domain) Weight() float64 {
	if w, ok := domainWeights[d]; ok {
		return w
	}
	return 1.0
}

// ParseDomain validates a wire-level domain string.
func ParseDomain(s string) (Domain, error) {
	d := Domain(s)
	if !d.IsKnown() {
		return "", fmt.Errorf("unknown domain %q", s)
	}
	return d, nil
}
