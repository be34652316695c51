package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/media")

	group.Use(authMiddleware)
	{
		group.POST("", h.Upload)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/content", h.Download)
		group.GET("/:id/thumbnail", h.DownloadThumbnail)
		group.DELETE("/:id", h.Delete)
	}
}
