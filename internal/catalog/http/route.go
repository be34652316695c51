package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/catalog")

	group.Use(authMiddleware)
	{
		group.GET("/offerings", h.List)
		group.GET("/offerings/:id", h.Get)
		group.POST("/offerings", h.Create)
		group.PATCH("/offerings/:id", h.Update)
		group.DELETE("/offerings/:id", h.Deactivate)

		group.GET("/categories", h.ListCategories)
		group.POST("/categories", h.CreateCategory)
		group.DELETE("/categories/:id", h.DeleteCategory)
	}
}
