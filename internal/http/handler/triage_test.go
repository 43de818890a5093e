package handler_test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scalemap.app/engine/internal/http/handler"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
	"scalemap.app/engine/internal/triage"
)

var _ = Describe("TriageHandler", func() {
	var (
		router    *gin.Engine
		validator *mockValidator
		svc       *mockAssessmentService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		validator = &mockValidator{}
		svc = &mockAssessmentService{
			getByIDFn: func(_ context.Context, id int64) (*model.Assessment, error) {
				return &model.Assessment{ID: id}, nil
			},
		}
		h := handler.NewTriageHandler(validator, svc)
		router.POST("/assessments/:id/triage/validate", h.Validate)
	})

	validBody := func() []byte {
		body, _ := json.Marshal(map[string]any{
			"domain_scores": map[string]any{
				"strategic-alignment": map[string]any{
					"score": 4.2, "confidence": 0.8, "severity": "high", "priority": "HIGH",
				},
			},
			"critical_domains":   []string{"strategic-alignment", "financial-management", "operational-excellence"},
			"overall_confidence": 0.8,
		})
		return body
	}

	It("returns the outcome for a valid analysis", func() {
		validator.validateFn = func(_ context.Context, assessment *model.Assessment, analysis *model.TriageAnalysis) (*triage.Outcome, error) {
			Expect(assessment.ID).To(Equal(int64(42)))
			Expect(analysis.AssessmentID).To(Equal(int64(42)))
			Expect(analysis.DomainScores).To(HaveKey(taxonomy.DomainStrategicAlignment))
			return &triage.Outcome{IsValid: true, Result: analysis}, nil
		}

		w := doRequest(router, http.MethodPost, "/assessments/42/triage/validate", validBody())

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["is_valid"]).To(BeTrue())
		Expect(resp["fallback_applied"]).To(BeFalse())
	})

	It("reports fallback details when validation fails", func() {
		validator.validateFn = func(_ context.Context, _ *model.Assessment, analysis *model.TriageAnalysis) (*triage.Outcome, error) {
			repaired := *analysis
			return &triage.Outcome{
				IsValid:         false,
				Result:          &repaired,
				FallbackApplied: true,
				Strategy:        triage.FallbackStructural,
				Errors: []triage.ValidationError{
					{Check: "coverage", Message: "Insufficient domains selected"},
				},
			}, nil
		}

		w := doRequest(router, http.MethodPost, "/assessments/42/triage/validate", validBody())

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			IsValid         bool   `json:"is_valid"`
			FallbackApplied bool   `json:"fallback_applied"`
			Strategy        string `json:"strategy"`
			Errors          []struct {
				Check   string `json:"check"`
				Message string `json:"message"`
			} `json:"errors"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.IsValid).To(BeFalse())
		Expect(resp.FallbackApplied).To(BeTrue())
		Expect(resp.Strategy).To(Equal(string(triage.FallbackStructural)))
		Expect(resp.Errors).To(HaveLen(1))
	})

	It("returns 404 for an unknown assessment", func() {
		svc.getByIDFn = nil

		w := doRequest(router, http.MethodPost, "/assessments/99/triage/validate", validBody())
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 400 on an unknown severity label", func() {
		body, _ := json.Marshal(map[string]any{
			"domain_scores": map[string]any{
				"strategic-alignment": map[string]any{
					"score": 4.2, "severity": "catastrophic", "priority": "HIGH",
				},
			},
			"critical_domains": []string{"strategic-alignment"},
		})

		w := doRequest(router, http.MethodPost, "/assessments/42/triage/validate", body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
