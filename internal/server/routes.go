package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DocumentRoutes registers the document endpoints.
type DocumentRoutes struct {
	handler *DocumentHandler
}

// NewDocumentRoutes returns the routes of handler.
func NewDocumentRoutes(handler *DocumentHandler) *DocumentRoutes {
	return &DocumentRoutes{handler: handler}
}

// RegisterRoutes adds the routes to router.
func (r *DocumentRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/parse", r.handler.Parse)

	docs := router.Group("/documents")
	{
		docs.POST("", r.handler.Create)
		docs.GET("", r.handler.List)
		docs.GET("/:id", r.handler.Get)
		docs.DELETE("/:id", r.handler.Delete)
		docs.PUT("/:id/source", r.handler.UpdateSource)
		docs.PATCH("/:id/nodes/:nodeID", r.handler.EditNode)
		docs.PUT("/:id/positions", r.handler.MoveNodes)
		docs.POST("/:id/layout", r.handler.Layout)
		docs.POST("/:id/tables", r.handler.AddTable)
		docs.GET("/:id/export/:format", r.handler.Export)
	}
}

// RegisterRoutes mounts the API under /api/v1 and the health check.
func RegisterRoutes(router *gin.Engine, documentHandler *DocumentHandler) {
	api := router.Group("/api/v1")
	NewDocumentRoutes(documentHandler).RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
