package triage_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
	"scalemap.app/engine/internal/triage"
)

const richAnswer = "We track this in a quarterly review because the board requires a full picture of performance and risk."

func fullyAnsweredAssessment() *model.Assessment {
	responses := make(map[taxonomy.Domain]model.DomainResponse, len(taxonomy.AllDomains))
	for _, domain := range taxonomy.AllDomains {
		answers := make(map[string]model.QuestionResponse)
		for _, q := range taxonomy.CriticalQuestions(domain) {
			answers[q] = model.QuestionResponse{
				QuestionID: q,
				Value:      model.ResponseValue{Text: richAnswer},
				Timestamp:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			}
		}
		responses[domain] = model.DomainResponse{Answers: answers}
	}
	return &model.Assessment{
		ID:        42,
		Industry:  taxonomy.IndustryProfile{Sector: taxonomy.SectorTechnology, RegulatoryTier: taxonomy.TierNonRegulated},
		Responses: responses,
	}
}

func consistentScore(score, confidence float64) model.DomainScore {
	return model.DomainScore{
		Score:      score,
		Confidence: confidence,
		Severity:   model.ExpectedSeverity(score),
		Priority:   model.ExpectedPriority(score),
	}
}

func healthyAnalysis() *model.TriageAnalysis {
	return &model.TriageAnalysis{
		AssessmentID: 42,
		DomainScores: map[taxonomy.Domain]model.DomainScore{
			taxonomy.DomainStrategicAlignment:    consistentScore(4.2, 0.85),
			taxonomy.DomainTechnologyData:        consistentScore(4.0, 0.8),
			taxonomy.DomainOperationalExcellence: consistentScore(3.9, 0.8),
			taxonomy.DomainPeopleOrganization:    consistentScore(3.8, 0.75),
			taxonomy.DomainFinancialManagement:   consistentScore(3.6, 0.8),
		},
		CriticalDomains: []taxonomy.Domain{
			taxonomy.DomainStrategicAlignment,
			taxonomy.DomainTechnologyData,
			taxonomy.DomainOperationalExcellence,
			taxonomy.DomainPeopleOrganization,
		},
		OverallConfidence: 0.8,
		Reasoning:         "Scores concentrated around growth execution.",
		ProducedAt:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
}

var _ = Describe("Validator", func() {
	var (
		ctx        context.Context
		v          triage.Validator
		assessment *model.Assessment
	)

	BeforeEach(func() {
		ctx = context.Background()
		v = triage.New(triage.DefaultConfig(), nil)
		assessment = fullyAnsweredAssessment()
	})

	It("passes a consistent, confident analysis unchanged", func() {
		analysis := healthyAnalysis()

		outcome, err := v.Validate(ctx, assessment, analysis)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.IsValid).To(BeTrue())
		Expect(outcome.FallbackApplied).To(BeFalse())
		Expect(outcome.Result).To(BeIdenticalTo(analysis))
	})

	Describe("severity and priority alignment", func() {
		DescribeTable("accepts exactly the label the score implies",
			func(score float64, severity model.TriageSeverity, priority model.TriagePriority, wantValid bool) {
				analysis := healthyAnalysis()
				analysis.DomainScores[taxonomy.DomainStrategicAlignment] = model.DomainScore{
					Score:      score,
					Confidence: 0.85,
					Severity:   severity,
					Priority:   priority,
				}

				outcome, err := v.Validate(ctx, assessment, analysis)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.IsValid).To(Equal(wantValid))
			},
			Entry("3.49 is low/HEALTHY", 3.49, model.TriageSeverityLow, model.TriagePriorityHealthy, true),
			Entry("3.49 rejected as medium", 3.49, model.TriageSeverityMedium, model.TriagePriorityHealthy, false),
			Entry("3.5 is medium/MODERATE", 3.5, model.TriageSeverityMedium, model.TriagePriorityModerate, true),
			Entry("3.5 rejected as low", 3.5, model.TriageSeverityLow, model.TriagePriorityModerate, false),
			Entry("3.99 is medium/MODERATE", 3.99, model.TriageSeverityMedium, model.TriagePriorityModerate, true),
			Entry("3.99 rejected as high", 3.99, model.TriageSeverityHigh, model.TriagePriorityModerate, false),
			Entry("4.0 is high/HIGH", 4.0, model.TriageSeverityHigh, model.TriagePriorityHigh, true),
			Entry("4.0 rejected as medium", 4.0, model.TriageSeverityMedium, model.TriagePriorityHigh, false),
			Entry("4.49 is high/HIGH", 4.49, model.TriageSeverityHigh, model.TriagePriorityHigh, true),
			Entry("4.49 rejected as critical", 4.49, model.TriageSeverityCritical, model.TriagePriorityHigh, false),
			Entry("4.5 is critical/CRITICAL", 4.5, model.TriageSeverityCritical, model.TriagePriorityCritical, true),
			Entry("4.5 rejected as high", 4.5, model.TriageSeverityHigh, model.TriagePriorityCritical, false),
		)
	})

	Describe("structural repair", func() {
		It("repairs a single-domain selection and keeps it", func() {
			analysis := healthyAnalysis()
			analysis.CriticalDomains = []taxonomy.Domain{taxonomy.DomainRiskCompliance}

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.IsValid).To(BeFalse())
			Expect(outcome.FallbackApplied).To(BeTrue())
			Expect(outcome.Strategy).To(Equal(triage.FallbackStructural))

			var messages []string
			for _, e := range outcome.Errors {
				messages = append(messages, e.Message)
			}
			Expect(messages).To(ContainElement(ContainSubstring("Insufficient domains")))

			repaired := outcome.Result
			Expect(len(repaired.CriticalDomains)).To(BeNumerically(">=", 3))
			Expect(len(repaired.CriticalDomains)).To(BeNumerically("<=", 5))
			Expect(repaired.CriticalDomains).To(ContainElement(taxonomy.DomainRiskCompliance))
			Expect(repaired.OverallConfidence).To(BeNumerically("~", 0.65, 1e-9))
			Expect(repaired.Reasoning).To(ContainSubstring("Scores concentrated"))
			Expect(repaired.Reasoning).To(ContainSubstring("Fallback"))
		})

		It("trims an oversized selection to the top scorers", func() {
			analysis := healthyAnalysis()
			analysis.DomainScores[taxonomy.DomainRevenueEngine] = consistentScore(2.0, 0.8)
			analysis.DomainScores[taxonomy.DomainSupplyChain] = consistentScore(2.5, 0.8)
			analysis.CriticalDomains = []taxonomy.Domain{
				taxonomy.DomainStrategicAlignment,
				taxonomy.DomainTechnologyData,
				taxonomy.DomainOperationalExcellence,
				taxonomy.DomainPeopleOrganization,
				taxonomy.DomainFinancialManagement,
				taxonomy.DomainRevenueEngine,
				taxonomy.DomainSupplyChain,
			}

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.Strategy).To(Equal(triage.FallbackStructural))
			Expect(outcome.Result.CriticalDomains).To(HaveLen(5))
			Expect(outcome.Result.CriticalDomains).NotTo(ContainElement(taxonomy.DomainRevenueEngine))
			Expect(outcome.Result.CriticalDomains).NotTo(ContainElement(taxonomy.DomainSupplyChain))
		})

		It("forces risk-compliance for heavily-regulated sectors, evicting the lowest scorer", func() {
			assessment.Industry = taxonomy.IndustryProfile{
				Sector:         taxonomy.SectorFinancialServices,
				RegulatoryTier: taxonomy.TierHeavilyRegulated,
			}
			analysis := healthyAnalysis()
			analysis.CriticalDomains = []taxonomy.Domain{
				taxonomy.DomainStrategicAlignment,
				taxonomy.DomainTechnologyData,
				taxonomy.DomainOperationalExcellence,
				taxonomy.DomainPeopleOrganization,
				taxonomy.DomainFinancialManagement,
			}

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.Strategy).To(Equal(triage.FallbackStructural))
			Expect(outcome.Result.CriticalDomains).To(HaveLen(5))
			Expect(outcome.Result.CriticalDomains).To(ContainElement(taxonomy.DomainRiskCompliance))
			// The lowest scorer of the original five is gone.
			Expect(outcome.Result.CriticalDomains).NotTo(ContainElement(taxonomy.DomainFinancialManagement))
		})
	})

	Describe("default-domain fallback", func() {
		It("substitutes the default triad when only confidence is low", func() {
			analysis := healthyAnalysis()
			analysis.OverallConfidence = 0.5

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.IsValid).To(BeFalse())
			Expect(outcome.Strategy).To(Equal(triage.FallbackDefaultDomain))
			Expect(outcome.Result.CriticalDomains).To(Equal(taxonomy.DefaultCriticalDomains))
			Expect(outcome.Result.OverallConfidence).To(BeNumerically("~", 0.6, 1e-9))
		})
	})

	Describe("industry fallback", func() {
		It("substitutes the sector mapping when assessment data is thin", func() {
			assessment.Responses = map[taxonomy.Domain]model.DomainResponse{}
			analysis := healthyAnalysis()
			analysis.OverallConfidence = 0.6 // low confidence plus thin data

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.Strategy).To(Equal(triage.FallbackIndustry))
			Expect(outcome.Result.CriticalDomains).To(Equal(taxonomy.SectorTechnology.FallbackDomains()))
			Expect(outcome.Result.OverallConfidence).To(BeNumerically(">=", 0.65))
		})
	})

	Describe("rule-based fallback", func() {
		It("rebuilds the selection from raw scores when quality is poor", func() {
			analysis := healthyAnalysis()
			// Wild score spread wrecks the variance term while data stays
			// complete, so quality is the only statistical failure.
			analysis.DomainScores[taxonomy.DomainStrategicAlignment] = consistentScore(5.0, 0.2)
			analysis.DomainScores[taxonomy.DomainTechnologyData] = consistentScore(1.0, 0.2)
			analysis.DomainScores[taxonomy.DomainOperationalExcellence] = consistentScore(5.0, 0.2)
			analysis.DomainScores[taxonomy.DomainPeopleOrganization] = consistentScore(1.0, 0.2)
			analysis.DomainScores[taxonomy.DomainFinancialManagement] = consistentScore(3.0, 0.2)
			analysis.OverallConfidence = 0.35

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.Strategy).To(Equal(triage.FallbackRuleBased))
			Expect(outcome.Result.CriticalDomains).To(HaveLen(5))
			Expect(outcome.Result.CriticalDomains[0]).To(BeElementOf(
				taxonomy.DomainStrategicAlignment, taxonomy.DomainOperationalExcellence))
			Expect(outcome.Result.OverallConfidence).To(BeNumerically(">=", 0.55))
		})
	})

	Describe("confidence bounds", func() {
		It("flags overall confidence exceeding average domain confidence by too much", func() {
			analysis := healthyAnalysis()
			for d, s := range analysis.DomainScores {
				s.Confidence = 0.5
				analysis.DomainScores[d] = s
			}
			analysis.OverallConfidence = 0.9

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.IsValid).To(BeFalse())

			var checks []string
			for _, e := range outcome.Errors {
				checks = append(checks, e.Check)
			}
			Expect(checks).To(ContainElement(triage.CheckConfidence))
		})

		It("flags out-of-range overall confidence", func() {
			analysis := healthyAnalysis()
			analysis.OverallConfidence = 1.4

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.IsValid).To(BeFalse())
			Expect(outcome.FallbackApplied).To(BeTrue())
		})
	})

	Describe("industry alignment", func() {
		It("flags a missing sector-required domain", func() {
			assessment.Industry = taxonomy.IndustryProfile{
				Sector:         taxonomy.SectorManufacturing,
				RegulatoryTier: taxonomy.TierLightlyRegulated,
			}
			analysis := healthyAnalysis() // no supply-chain in the selection

			outcome, err := v.Validate(ctx, assessment, analysis)
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.IsValid).To(BeFalse())
			Expect(outcome.Strategy).To(Equal(triage.FallbackStructural))
			var messages []string
			for _, e := range outcome.Errors {
				messages = append(messages, e.Message)
			}
			Expect(messages).To(ContainElement(ContainSubstring("supply-chain")))
		})
	})
})
