package lifecycle_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scalemap.app/engine/common/id"
	"scalemap.app/engine/internal/lifecycle"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/taxonomy"
)

var _ = Describe("Manager", func() {
	var (
		ctx         context.Context
		assessments *mockAssessmentStore
		gaps        *mockGapStore
		resumer     *mockResumer
		stores      *store.Stores
		now         time.Time
		mgr         lifecycle.Manager
	)

	openGap := func(gapID int64, category model.GapCategory) *model.AssessmentGap {
		return &model.AssessmentGap{
			ID:           gapID,
			AssessmentID: 42,
			Domain:       taxonomy.DomainFinancialManagement,
			Category:     category,
			Source:       model.SourceMissingAnswer,
			QuestionID:   "fm-budget-constraints",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())

		assessments = &mockAssessmentStore{}
		gaps = &mockGapStore{}
		resumer = &mockResumer{}
		stores = &store.Stores{Assessments: assessments, Gaps: gaps}
		now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		mgr = lifecycle.New(stores, resumer, nil,
			lifecycle.WithClock(func() time.Time { return now }))

		assessments.getByIDFn = func(_ context.Context, _ int64) (*model.Assessment, error) {
			return &model.Assessment{
				ID:        42,
				Responses: map[taxonomy.Domain]model.DomainResponse{},
				Version:   1,
			}, nil
		}
	})

	Describe("Resolve", func() {
		It("rejects a request with neither response nor skip", func() {
			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{})
			Expect(err).To(MatchError(lifecycle.ErrInvalidResolution))
		})

		It("rejects a request with both response and skip", func() {
			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{ClientResponse: "answer", Skip: true})
			Expect(err).To(MatchError(lifecycle.ErrInvalidResolution))
		})

		It("treats a whitespace-only response as absent", func() {
			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{ClientResponse: "   "})
			Expect(err).To(MatchError(lifecycle.ErrInvalidResolution))
		})

		It("returns GapNotFound for an unknown gap", func() {
			_, err := mgr.Resolve(ctx, 999, lifecycle.Resolution{Skip: true, SkipReason: "n/a"})
			Expect(err).To(MatchError(lifecycle.ErrGapNotFound))
		})

		It("refuses to resolve the same gap twice", func() {
			gap := openGap(1, model.GapImportant)
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return gap, nil
			}

			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{Skip: true})
			Expect(err).NotTo(HaveOccurred())

			_, err = mgr.Resolve(ctx, 1, lifecycle.Resolution{Skip: true})
			Expect(err).To(MatchError(lifecycle.ErrGapAlreadyResolved))
		})

		It("skips with founder override and zero completeness impact", func() {
			gap := openGap(1, model.GapCritical)
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return gap, nil
			}
			var saved *model.AssessmentGap
			gaps.updateFn = func(_ context.Context, g *model.AssessmentGap) error {
				saved = g
				return nil
			}

			outcome, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{Skip: true, SkipReason: "not applicable"})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Resolved).To(BeTrue())
			Expect(outcome.ImpactOnCompleteness).To(BeZero())

			Expect(saved.Resolved).To(BeTrue())
			Expect(saved.ResolutionMethod).To(Equal(model.ResolutionFounderOverride))
			Expect(saved.SkipReason).To(Equal("not applicable"))
			Expect(*saved.ResolvedAt).To(Equal(now))
		})

		DescribeTable("client-input impact scales with category and response quality",
			func(category model.GapCategory, response string, expected float64) {
				gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
					return openGap(1, category), nil
				}

				outcome, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{ClientResponse: response})
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.ImpactOnCompleteness).To(BeNumerically("~", expected, 1e-9))
			},
			Entry("critical with a rich response",
				model.GapCritical,
				"Our budget is reviewed monthly and reallocated across the three product lines as needed.",
				6.0), // 5 x 1.2
			Entry("important with a medium response",
				model.GapImportant,
				"Reviewed monthly by finance team", // 31 chars
				3.0), // 3 x 1.0
			Entry("nice-to-have with a short response",
				model.GapNiceToHave,
				"Monthly review.",
				0.8), // 1 x 0.8
		)

		It("writes the client response back into the assessment answers", func() {
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return openGap(1, model.GapImportant), nil
			}
			var updated *model.Assessment
			assessments.updateFn = func(_ context.Context, a *model.Assessment) error {
				updated = a
				return nil
			}

			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{ClientResponse: "Spending is planned against a rolling quarterly forecast."})
			Expect(err).NotTo(HaveOccurred())

			Expect(updated).NotTo(BeNil())
			answer, ok := updated.Response(taxonomy.DomainFinancialManagement, "fm-budget-constraints")
			Expect(ok).To(BeTrue())
			Expect(answer.Value.Text).To(ContainSubstring("rolling quarterly forecast"))
			Expect(updated.Responses[taxonomy.DomainFinancialManagement].CompletenessPercent).To(BeNumerically(">", 0))
		})

		It("detects and persists a conflict the response introduces", func() {
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return openGap(1, model.GapImportant), nil
			}
			assessments.getByIDFn = func(_ context.Context, _ int64) (*model.Assessment, error) {
				return &model.Assessment{
					ID: 42,
					Responses: map[taxonomy.Domain]model.DomainResponse{
						taxonomy.DomainStrategicAlignment: {
							Answers: map[string]model.QuestionResponse{
								"sa-growth-targets": {
									QuestionID: "sa-growth-targets",
									Value:      model.ResponseValue{Text: "Aggressive growth, tripling revenue in two years."},
								},
							},
						},
					},
					Version: 1,
				}, nil
			}
			var created []model.AssessmentGap
			gaps.createFn = func(_ context.Context, g *model.AssessmentGap) error {
				created = append(created, *g)
				return nil
			}

			outcome, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{
				ClientResponse: "Budget is severely limited until the next funding round closes.",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(outcome.NewGaps).To(HaveLen(1))
			Expect(outcome.NewGaps[0].Source).To(Equal(model.SourceResolutionCheck))
			Expect(outcome.NewGaps[0].Category).To(Equal(model.GapCritical))
			Expect(created).To(HaveLen(1))
		})

		It("runs a resume check after resolving a critical gap", func() {
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return openGap(1, model.GapCritical), nil
			}
			gaps.listByAssessmentFn = func(_ context.Context, _ int64) ([]model.AssessmentGap, error) {
				return []model.AssessmentGap{
					{ID: 1, Resolved: true},
					{ID: 2, Resolved: false},
					{ID: 3, Resolved: true},
				}, nil
			}

			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{Skip: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(resumer.calls).To(Equal(1))
			Expect(resumer.lastIDs).To(ConsistOf(int64(1), int64(3)))
		})

		It("does not fail the resolution when the resume check errors", func() {
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return openGap(1, model.GapCritical), nil
			}
			resumer.resumeFn = func(_ context.Context, _ int64, _ []int64, _ string) (bool, error) {
				return false, errors.New("timeline unavailable")
			}

			outcome, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{Skip: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Resolved).To(BeTrue())
		})

		It("skips the resume check for non-critical gaps", func() {
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return openGap(1, model.GapNiceToHave), nil
			}

			_, err := mgr.Resolve(ctx, 1, lifecycle.Resolution{Skip: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(resumer.calls).To(BeZero())
		})
	})

	Describe("ResolveBulk", func() {
		It("rejects an empty batch", func() {
			_, err := mgr.ResolveBulk(ctx, 42, nil)
			Expect(err).To(MatchError(lifecycle.ErrEmptyBatch))
		})

		It("rejects a batch above the limit", func() {
			items := make([]lifecycle.BulkItem, lifecycle.MaxBulkItems+1)
			for i := range items {
				items[i] = lifecycle.BulkItem{GapID: int64(i + 1), Resolution: lifecycle.Resolution{Skip: true}}
			}

			_, err := mgr.ResolveBulk(ctx, 42, items)
			Expect(err).To(MatchError(lifecycle.ErrBatchTooLarge))
		})

		It("isolates a missing gap without aborting the batch", func() {
			known := map[int64]*model.AssessmentGap{
				1: openGap(1, model.GapImportant),
				3: openGap(3, model.GapImportant),
			}
			gaps.getByIDFn = func(_ context.Context, gapID int64) (*model.AssessmentGap, error) {
				if g, ok := known[gapID]; ok {
					return g, nil
				}
				return nil, store.ErrNotFound
			}

			result, err := mgr.ResolveBulk(ctx, 42, []lifecycle.BulkItem{
				{GapID: 1, Resolution: lifecycle.Resolution{Skip: true}},
				{GapID: 2, Resolution: lifecycle.Resolution{Skip: true}},
				{GapID: 3, Resolution: lifecycle.Resolution{Skip: true}},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.ProcessedCount).To(Equal(3))
			Expect(result.ResolvedCount).To(Equal(2))
			Expect(result.FailedResolutions).To(HaveLen(1))
			Expect(result.FailedResolutions[0].GapID).To(Equal(int64(2)))
			Expect(result.FailedResolutions[0].Error).To(Equal("Gap not found"))
		})

		It("issues a single trailing resume check for the whole batch", func() {
			known := map[int64]*model.AssessmentGap{
				1: openGap(1, model.GapCritical),
				2: openGap(2, model.GapCritical),
			}
			gaps.getByIDFn = func(_ context.Context, gapID int64) (*model.AssessmentGap, error) {
				if g, ok := known[gapID]; ok {
					return g, nil
				}
				return nil, store.ErrNotFound
			}

			_, err := mgr.ResolveBulk(ctx, 42, []lifecycle.BulkItem{
				{GapID: 1, Resolution: lifecycle.Resolution{Skip: true}},
				{GapID: 2, Resolution: lifecycle.Resolution{Skip: true}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resumer.calls).To(Equal(1))
		})

		It("flags gaps belonging to a different assessment", func() {
			foreign := openGap(5, model.GapImportant)
			foreign.AssessmentID = 77
			gaps.getByIDFn = func(_ context.Context, _ int64) (*model.AssessmentGap, error) {
				return foreign, nil
			}

			result, err := mgr.ResolveBulk(ctx, 42, []lifecycle.BulkItem{
				{GapID: 5, Resolution: lifecycle.Resolution{Skip: true}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ResolvedCount).To(BeZero())
			Expect(result.FailedResolutions).To(HaveLen(1))
			Expect(result.FailedResolutions[0].Error).To(ContainSubstring("assessment 77"))
		})
	})
})
