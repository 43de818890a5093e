package handler_test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scalemap.app/engine/internal/http/handler"
	"scalemap.app/engine/internal/lifecycle"
)

var _ = Describe("GapHandler", func() {
	var (
		router *gin.Engine
		mgr    *mockGapManager
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		mgr = &mockGapManager{}
		h := handler.NewGapHandler(mgr)
		router.POST("/gaps/:id/resolve", h.Resolve)
		router.POST("/assessments/:id/gaps/bulk-resolve", h.ResolveBulk)
	})

	Describe("Resolve", func() {
		It("returns the outcome on success", func() {
			mgr.resolveFn = func(_ context.Context, gapID int64, res lifecycle.Resolution) (*lifecycle.Outcome, error) {
				Expect(gapID).To(Equal(int64(7)))
				Expect(res.ClientResponse).To(Equal("We have 14 months of runway at current burn."))
				Expect(res.ResolvedBy).To(Equal("founder@acme.example"))
				return &lifecycle.Outcome{Resolved: true, ImpactOnCompleteness: 6.0, Message: "Gap resolved with client input"}, nil
			}

			body, _ := json.Marshal(map[string]any{
				"client_response": "We have 14 months of runway at current burn.",
				"resolved_by":     "founder@acme.example",
			})

			w := doRequest(router, http.MethodPost, "/gaps/7/resolve", body)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["resolved"]).To(BeTrue())
			Expect(resp["impact_on_completeness"]).To(BeNumerically("==", 6.0))
		})

		It("returns 404 for an unknown gap", func() {
			body, _ := json.Marshal(map[string]any{
				"client_response": "answer",
				"resolved_by":     "founder",
			})

			w := doRequest(router, http.MethodPost, "/gaps/999/resolve", body)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 409 for a double resolution", func() {
			mgr.resolveFn = func(context.Context, int64, lifecycle.Resolution) (*lifecycle.Outcome, error) {
				return nil, lifecycle.ErrGapAlreadyResolved
			}

			body, _ := json.Marshal(map[string]any{
				"client_response": "answer",
				"resolved_by":     "founder",
			})

			w := doRequest(router, http.MethodPost, "/gaps/7/resolve", body)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("returns 400 when response and skip conflict", func() {
			mgr.resolveFn = func(context.Context, int64, lifecycle.Resolution) (*lifecycle.Outcome, error) {
				return nil, lifecycle.ErrInvalidResolution
			}

			body, _ := json.Marshal(map[string]any{
				"client_response": "answer",
				"skip":            true,
				"skip_reason":     "not relevant",
				"resolved_by":     "founder",
			})

			w := doRequest(router, http.MethodPost, "/gaps/7/resolve", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when resolved_by is missing", func() {
			body, _ := json.Marshal(map[string]any{"client_response": "answer"})

			w := doRequest(router, http.MethodPost, "/gaps/7/resolve", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ResolveBulk", func() {
		It("rejects a body whose assessment id disagrees with the path", func() {
			body, _ := json.Marshal(map[string]any{
				"assessment_id": "43",
				"items": []map[string]any{
					{"gap_id": "1", "client_response": "answer", "resolved_by": "founder"},
				},
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/gaps/bulk-resolve", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns per-item failures without failing the batch", func() {
			mgr.resolveBulkFn = func(_ context.Context, assessmentID int64, items []lifecycle.BulkItem) (*lifecycle.BulkResult, error) {
				Expect(assessmentID).To(Equal(int64(42)))
				Expect(items).To(HaveLen(3))
				return &lifecycle.BulkResult{
					ProcessedCount: 3,
					ResolvedCount:  2,
					FailedResolutions: []lifecycle.BulkFailure{
						{GapID: 2, Error: "Gap not found"},
					},
				}, nil
			}

			body, _ := json.Marshal(map[string]any{
				"assessment_id": "42",
				"items": []map[string]any{
					{"gap_id": "1", "client_response": "first answer", "resolved_by": "founder"},
					{"gap_id": "2", "client_response": "second answer", "resolved_by": "founder"},
					{"gap_id": "3", "client_response": "third answer", "resolved_by": "founder"},
				},
			})

			w := doRequest(router, http.MethodPost, "/assessments/42/gaps/bulk-resolve", body)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				ProcessedCount    int `json:"processed_count"`
				ResolvedCount     int `json:"resolved_count"`
				FailedResolutions []struct {
					GapID string `json:"gap_id"`
					Error string `json:"error"`
				} `json:"failed_resolutions"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.ProcessedCount).To(Equal(3))
			Expect(resp.ResolvedCount).To(Equal(2))
			Expect(resp.FailedResolutions).To(HaveLen(1))
			Expect(resp.FailedResolutions[0].GapID).To(Equal("2"))
			Expect(resp.FailedResolutions[0].Error).To(Equal("Gap not found"))
		})

		It("returns 400 for an empty batch", func() {
			mgr.resolveBulkFn = func(context.Context, int64, []lifecycle.BulkItem) (*lifecycle.BulkResult, error) {
				return nil, lifecycle.ErrEmptyBatch
			}

			body, _ := json.Marshal(map[string]any{"assessment_id": "42", "items": []any{}})
			w := doRequest(router, http.MethodPost, "/assessments/42/gaps/bulk-resolve", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for an oversized batch", func() {
			mgr.resolveBulkFn = func(context.Context, int64, []lifecycle.BulkItem) (*lifecycle.BulkResult, error) {
				return nil, lifecycle.ErrBatchTooLarge
			}

			items := make([]map[string]any, 51)
			for i := range items {
				items[i] = map[string]any{"gap_id": "1", "client_response": "a", "resolved_by": "founder"}
			}
			body, _ := json.Marshal(map[string]any{"assessment_id": "42", "items": items})

			w := doRequest(router, http.MethodPost, "/assessments/42/gaps/bulk-resolve", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
