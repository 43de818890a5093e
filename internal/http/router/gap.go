package router

import (
	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/handler"
)

// GapRouter mounts gap resolution. Single resolution is addressed by gap ID;
// bulk resolution stays under the owning assessment so the batch scope is
// explicit in the path.
func GapRouter(v1 *gin.RouterGroup, h *handler.GapHandler) {
	v1.POST("/gaps/:id/resolve", h.Resolve)
	v1.POST("/assessments/:id/gaps/bulk-resolve", h.ResolveBulk)
}
