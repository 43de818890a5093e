package router

import (
	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/handler"
)

// AssessmentRouter mounts everything addressed by assessment ID: the
// aggregate itself, analysis runs, the timeline, and triage validation.
func AssessmentRouter(
	rg *gin.RouterGroup,
	assessments *handler.AssessmentHandler,
	analysis *handler.AnalysisHandler,
	timeline *handler.TimelineHandler,
	triage *handler.TriageHandler,
) {
	rg.POST("", assessments.Create)
	rg.GET("", assessments.List)
	rg.GET("/:id", assessments.GetByID)
	rg.GET("/:id/gaps", assessments.ListGaps)

	rg.POST("/:id/analysis", analysis.Analyze)
	rg.GET("/:id/analysis", analysis.GetLatest)

	rg.GET("/:id/timeline", timeline.Status)
	rg.GET("/:id/timeline/extensions", timeline.ListExtensions)
	rg.POST("/:id/timeline/extensions", timeline.RequestExtension)

	rg.POST("/:id/triage/validate", triage.Validate)
}
