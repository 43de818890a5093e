package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scalemap.app/engine/internal/http/handler"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/timeline"
)

var _ = Describe("TimelineHandler", func() {
	var (
		router  *gin.Engine
		machine *mockMachine
		exts    *mockExtensionStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		machine = &mockMachine{}
		exts = &mockExtensionStore{}
		h := handler.NewTimelineHandler(machine, exts)
		router.GET("/assessments/:id/timeline", h.Status)
		router.GET("/assessments/:id/timeline/extensions", h.ListExtensions)
		router.POST("/assessments/:id/timeline/extensions", h.RequestExtension)
	})

	Describe("Status", func() {
		It("returns the derived status", func() {
			machine.statusFn = func(_ context.Context, assessmentID int64) (model.TimelineStatus, error) {
				Expect(assessmentID).To(Equal(int64(42)))
				return model.TimelineAtRisk, nil
			}

			w := doRequest(router, http.MethodGet, "/assessments/42/timeline", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["status"]).To(Equal("at-risk"))
		})

		It("returns 404 for an unknown assessment", func() {
			w := doRequest(router, http.MethodGet, "/assessments/99/timeline", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("RequestExtension", func() {
		It("creates an auto-approved extension", func() {
			machine.extensionFn = func(_ context.Context, req timeline.ExtensionRequest) (*model.TimelineExtension, error) {
				Expect(req.AssessmentID).To(Equal(int64(42)))
				Expect(req.Type).To(Equal(model.ExtensionGapResolution))
				Expect(req.Duration).To(Equal(3 * time.Hour))
				system := "system"
				now := time.Now()
				return &model.TimelineExtension{
					ID:           100,
					AssessmentID: 42,
					Type:         req.Type,
					Duration:     req.Duration,
					RequestedBy:  req.RequestedBy,
					ApprovedBy:   &system,
					ApprovedAt:   &now,
				}, nil
			}

			body, _ := json.Marshal(map[string]any{
				"type":             "gap-resolution",
				"duration_minutes": 180,
				"justification":    "critical gaps needed client input",
				"requested_by":     "ops@scalemap.app",
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/timeline/extensions", body)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["approved"]).To(BeTrue())
			Expect(resp["duration_minutes"]).To(BeNumerically("==", 180))
		})

		It("returns 422 on a business rule rejection", func() {
			machine.extensionFn = func(context.Context, timeline.ExtensionRequest) (*model.TimelineExtension, error) {
				return nil, timeline.ErrMaxExtensions
			}

			body, _ := json.Marshal(map[string]any{
				"type":             "gap-resolution",
				"duration_minutes": 60,
				"justification":    "one more push",
				"requested_by":     "ops@scalemap.app",
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/timeline/extensions", body)
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("returns 400 on an unknown extension type", func() {
			body, _ := json.Marshal(map[string]any{
				"type":             "vacation",
				"duration_minutes": 60,
				"justification":    "holidays",
				"requested_by":     "ops@scalemap.app",
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/timeline/extensions", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ListExtensions", func() {
		It("lists the extension log", func() {
			exts.listFn = func(_ context.Context, assessmentID int64) ([]model.TimelineExtension, error) {
				return []model.TimelineExtension{
					{ID: 1, AssessmentID: assessmentID, Type: model.ExtensionClarification, Duration: time.Hour},
				}, nil
			}

			w := doRequest(router, http.MethodGet, "/assessments/42/timeline/extensions", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Extensions []map[string]any `json:"extensions"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Extensions).To(HaveLen(1))
			Expect(resp.Extensions[0]["type"]).To(Equal("clarification"))
		})
	})
})
