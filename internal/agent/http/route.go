package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/agent")

	group.Use(authMiddleware)
	{
		group.GET("/tools", h.ListTools)

		group.POST("/proposals", h.Propose)
		group.GET("/proposals", h.ListPending)
		group.GET("/proposals/:id", h.Get)
		group.POST("/proposals/:id/confirm", h.Confirm)
		group.POST("/proposals/:id/reject", h.Reject)

		group.POST("/messages", h.UserMessage)
	}
}
