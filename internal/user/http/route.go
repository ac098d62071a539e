package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/users")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}

	// === Admin Routes ===
	// Role endpoints nest under the ID segment; a /users/role/:id sibling
	// would conflict with the /users/:id wildcard in gin's route tree.
	admin := group.Group("")
	admin.Use(adminMiddleware)
	{
		admin.GET("/:id/role", h.GetRole)
		admin.PATCH("/:id/role", h.ChangeRole)
		admin.DELETE("/:id", h.Delete)
	}
}
