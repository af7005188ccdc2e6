package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scoreservice.app/review/internal/http/handler"
	"scoreservice.app/review/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		documentHandler := handler.NewDocumentHandler(services.Documents())
		DocumentRouter(v1.Group("/documents"), documentHandler)

		reviewHandler := handler.NewReviewHandler(services.Reviews())
		ReviewRouter(v1, reviewHandler)
	}
}
