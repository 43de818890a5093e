package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scalemap.app/engine/internal/detect"
	"scalemap.app/engine/internal/http/handler"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

var _ = Describe("AnalysisHandler", func() {
	var (
		router   *gin.Engine
		analyzer *mockAnalyzer
		svc      *mockAssessmentService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		analyzer = &mockAnalyzer{}
		svc = &mockAssessmentService{}
		h := handler.NewAnalysisHandler(analyzer, svc)
		router.POST("/assessments/:id/analysis", h.Analyze)
		router.GET("/assessments/:id/analysis", h.GetLatest)
	})

	Describe("Analyze", func() {
		It("runs a standard analysis on an empty body", func() {
			analyzer.analyzeFn = func(_ context.Context, assessmentID int64, opts detect.Options) (*detect.Result, error) {
				Expect(assessmentID).To(Equal(int64(42)))
				Expect(opts.Depth).To(BeEmpty())
				Expect(opts.ForceReanalysis).To(BeFalse())
				return &detect.Result{
					Analysis: &model.GapAnalysis{
						AssessmentID:        42,
						OverallCompleteness: 61.5,
						DomainAnalyses: map[taxonomy.Domain]model.DomainCompletenessAnalysis{
							taxonomy.DomainStrategicAlignment: {Domain: taxonomy.DomainStrategicAlignment, CompletenessScore: 80},
						},
						Gaps:       []model.AssessmentGap{{ID: 7, AssessmentID: 42, Category: model.GapImportant}},
						TotalCount: 1,
						AnalyzedAt: time.Now(),
					},
				}, nil
			}

			w := doRequest(router, http.MethodPost, "/assessments/42/analysis", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["overall_completeness"]).To(BeNumerically("~", 61.5, 0.01))
			Expect(resp["cached"]).To(BeFalse())
		})

		It("passes depth, focus, and force flags through", func() {
			analyzer.analyzeFn = func(_ context.Context, _ int64, opts detect.Options) (*detect.Result, error) {
				Expect(opts.Depth).To(Equal(detect.DepthComprehensive))
				Expect(opts.FocusDomains).To(ConsistOf(taxonomy.DomainFinancialManagement))
				Expect(opts.ForceReanalysis).To(BeTrue())
				return &detect.Result{Analysis: &model.GapAnalysis{AssessmentID: 42}}, nil
			}

			body, _ := json.Marshal(map[string]any{
				"depth":            "comprehensive",
				"focus_domains":    []string{"financial-management"},
				"force_reanalysis": true,
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/analysis", body)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 400 on an unknown focus domain", func() {
			body, _ := json.Marshal(map[string]any{
				"focus_domains": []string{"not-a-domain"},
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/analysis", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on an unknown depth", func() {
			body, _ := json.Marshal(map[string]any{"depth": "forensic"})

			w := doRequest(router, http.MethodPost, "/assessments/42/analysis", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown assessment", func() {
			w := doRequest(router, http.MethodPost, "/assessments/99/analysis", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("surfaces the pause created for critical gaps", func() {
			analyzer.analyzeFn = func(context.Context, int64, detect.Options) (*detect.Result, error) {
				return &detect.Result{
					Analysis: &model.GapAnalysis{AssessmentID: 42, CriticalCount: 1, TotalCount: 1},
					Pause:    &model.TimelinePauseEvent{ID: 9, AssessmentID: 42, Active: true},
				}, nil
			}

			w := doRequest(router, http.MethodPost, "/assessments/42/analysis", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			pause, ok := resp["pause"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(pause["active"]).To(BeTrue())
		})
	})

	Describe("GetLatest", func() {
		It("serves the stored snapshot as cached", func() {
			svc.latestAnalysisFn = func(_ context.Context, assessmentID int64) (*model.GapAnalysis, error) {
				return &model.GapAnalysis{AssessmentID: assessmentID, OverallCompleteness: 75}, nil
			}

			w := doRequest(router, http.MethodGet, "/assessments/42/analysis", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["cached"]).To(BeTrue())
		})

		It("returns 404 when no snapshot exists", func() {
			w := doRequest(router, http.MethodGet, "/assessments/42/analysis", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
