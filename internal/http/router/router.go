package router

import (
	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/handler"
	"scalemap.app/engine/internal/service"
)

type RouterConfig struct {
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		assessmentHandler := handler.NewAssessmentHandler(services.Assessments())
		analysisHandler := handler.NewAnalysisHandler(services.Analyzer(), services.Assessments())
		timelineHandler := handler.NewTimelineHandler(services.Timeline(), services.Stores().Extensions)
		triageHandler := handler.NewTriageHandler(services.Triage(), services.Assessments())
		AssessmentRouter(v1.Group("/assessments"), assessmentHandler, analysisHandler, timelineHandler, triageHandler)

		gapHandler := handler.NewGapHandler(services.Gaps())
		GapRouter(v1, gapHandler)
	}
}
