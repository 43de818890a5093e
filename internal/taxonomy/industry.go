package taxonomy

import "fmt"

// Sector classifies the company being assessed. The set is closed so that
// industry rule lookups are exhaustive rather than silently empty.
type Sector string

const (
	SectorFinancialServices    Sector = "financial-services"
	SectorHealthcare           Sector = "healthcare"
	SectorTechnology           Sector = "technology"
	SectorRetail               Sector = "retail"
	SectorManufacturing        Sector = "manufacturing"
	SectorProfessionalServices Sector = "professional-services"
	SectorOther                Sector = "other"
)

// RegulatoryTier captures how heavily the sector is regulated for this
// particular company.
type RegulatoryTier string

const (
	TierNonRegulated     RegulatoryTier = "non-regulated"
	TierLightlyRegulated RegulatoryTier = "lightly-regulated"
	TierHeavilyRegulated RegulatoryTier = "heavily-regulated"
)

// IndustryProfile is the classification carried by every assessment.
type IndustryProfile struct {
	Sector         Sector         `json:"sector"`
	RegulatoryTier RegulatoryTier `json:"regulatory_tier"`
}

var knownSectors = map[Sector]bool{
	SectorFinancialServices:    true,
	SectorHealthcare:           true,
	SectorTechnology:           true,
	SectorRetail:               true,
	SectorManufacturing:        true,
	SectorProfessionalServices: true,
	SectorOther:                true,
}

// IsKnown reports whether s names a supported sector.
func (s Sector) IsKnown() bool { return knownSectors[s] }

// ParseSector validates a wire-level sector string.
func ParseSector(v string) (Sector, error) {
	s := Sector(v)
	if !s.IsKnown() {
		return "", fmt.Errorf("unknown sector %q", v)
	}
	return s, nil
}

// RequiredDomains lists the domains a trustworthy triage selection must
// include for the sector. Empty means no sector-specific requirement.
func (s Sector) RequiredDomains() []Domain {
	switch s {
	case SectorFinancialServices:
		return []Domain{DomainRiskCompliance, DomainFinancialManagement}
	case SectorHealthcare:
		return []Domain{DomainRiskCompliance}
	case SectorManufacturing:
		return []Domain{DomainSupplyChain, DomainOperationalExcellence}
	case SectorRetail:
		return []Domain{DomainCustomerExperience}
	case SectorTechnology:
		return []Domain{DomainTechnologyData}
	case SectorProfessionalServices, SectorOther:
		return nil
	}
	return nil
}

// FallbackDomains is the fixed industry-to-domain mapping used by the triage
// industry fallback (top 5, most important first).
func (s Sector) FallbackDomains() []Domain {
	switch s {
	case SectorFinancialServices:
		return []Domain{DomainRiskCompliance, DomainFinancialManagement, DomainStrategicAlignment, DomainTechnologyData, DomainOperationalExcellence}
	case SectorHealthcare:
		return []Domain{DomainRiskCompliance, DomainOperationalExcellence, DomainPeopleOrganization, DomainTechnologyData, DomainStrategicAlignment}
	case SectorTechnology:
		return []Domain{DomainTechnologyData, DomainRevenueEngine, DomainStrategicAlignment, DomainPeopleOrganization, DomainCustomerSuccess}
	case SectorRetail:
		return []Domain{DomainCustomerExperience, DomainSupplyChain, DomainRevenueEngine, DomainOperationalExcellence, DomainFinancialManagement}
	case SectorManufacturing:
		return []Domain{DomainSupplyChain, DomainOperationalExcellence, DomainFinancialManagement, DomainTechnologyData, DomainRiskCompliance}
	case SectorProfessionalServices:
		return []Domain{DomainPeopleOrganization, DomainRevenueEngine, DomainStrategicAlignment, DomainOperationalExcellence, DomainCustomerSuccess}
	case SectorOther:
		return []Domain{DomainStrategicAlignment, DomainFinancialManagement, DomainOperationalExcellence, DomainRevenueEngine, DomainPeopleOrganization}
	}
	return append([]Domain(nil), DefaultCriticalDomains...)
}

// ComplianceRegime names the regulatory framework an industry compliance gap
// is checked against.
type ComplianceRegime string

const (
	RegimeFCA      ComplianceRegime = "fca"
	RegimeHIPAAGDPR ComplianceRegime = "hipaa-gdpr"
)

// ComplianceRule describes the mandatory answers a sector must carry in the
// risk-compliance domain before its regime is considered fully covered.
type ComplianceRule struct {
	Regime          ComplianceRegime
	Description     string
	MandatoryFields []string
}

// ComplianceRuleFor returns the rule applying to the profile, or false when
// the sector carries no industry-specific compliance check. Financial-style
// rules are never applied to non-financial sectors and vice versa.
func ComplianceRuleFor(p IndustryProfile) (ComplianceRule, bool) {
	switch p.Sector {
	case SectorFinancialServices:
		if p.RegulatoryTier != TierHeavilyRegulated {
			return ComplianceRule{}, false
		}
		return ComplianceRule{
			Regime:          RegimeFCA,
			Description:     "FCA authorisation scope, permissions, and conduct-risk controls",
			MandatoryFields: []string{"rc-regulatory-obligations", "rc-controls", "rc-fca-permissions"},
		}, true
	case SectorHealthcare:
		return ComplianceRule{
			Regime:          RegimeHIPAAGDPR,
			Description:     "patient-data handling under HIPAA/GDPR, incl. processing basis and breach process",
			MandatoryFields: []string{"rc-regulatory-obligations", "rc-data-processing-basis", "rc-breach-process"},
		}, true
	case SectorTechnology, SectorRetail, SectorManufacturing, SectorProfessionalServices, SectorOther:
		return ComplianceRule{}, false
	}
	return ComplianceRule{}, false
}
