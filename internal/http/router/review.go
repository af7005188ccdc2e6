package router

import (
	"github.com/gin-gonic/gin"

	"scoreservice.app/review/internal/http/handler"
)

// DocumentRouter exposes Backlog document trees.
func DocumentRouter(rg *gin.RouterGroup, h *handler.DocumentHandler) {
	rg.POST("/tree", h.Tree)
}

// ReviewRouter exposes the model backed review endpoints.
// Both take the caller's API keys in the body; nothing is stored.
func ReviewRouter(rg *gin.RouterGroup, h *handler.ReviewHandler) {
	rg.POST("/analysis", h.Analyze)
	rg.POST("/design-reviews", h.DesignReview)
}
