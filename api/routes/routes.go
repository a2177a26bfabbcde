package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docstream/api/handlers"
	"github.com/feichai0017/docstream/api/middleware"
)

// SetupRoutes wires all HTTP endpoints.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	docs := v1.Group("/documents")
	{
		docs.POST("", h.Document.Upload)
		docs.GET("", h.Document.List)
		docs.GET("/:id", h.Document.Get)
		docs.GET("/:id/pages", h.Document.Pages)
		docs.DELETE("/:id", h.Document.Delete)
	}

	v1.GET("/pages/search", h.Document.Search)
	v1.GET("/events", h.Events.Stream)
}
