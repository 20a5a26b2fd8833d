package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/handlers"
	"github.com/lovpen/lovpen-server/internal/middleware"
)

func registerAdminRoutes(group *gin.RouterGroup, deps Dependencies) {
	authHandler := handlers.NewAdminAuthHandler(deps.Admin, deps.JWT)
	if deps.RateStore != nil {
		group.POST("/login", middleware.RateLimit(deps.RateStore, adminLoginRequests, adminLoginWindow), authHandler.Login)
	} else {
		group.POST("/login", authHandler.Login)
	}

	waitlist := handlers.NewAdminWaitlistHandler(deps.Waitlist, deps.Hub)
	protected := group.Group("/waitlist", middleware.Auth(deps.JWT), middleware.RequireAdmin())
	{
		protected.GET("", waitlist.List)
		protected.GET("/stats", waitlist.Stats)
		protected.GET("/stream", waitlist.Stream)
		protected.PATCH("/:id", waitlist.Update)
		protected.DELETE("/:id", waitlist.Delete)
	}

	if deps.Security != nil {
		securityHandler := handlers.NewSecurityHandler(deps.Security)
		group.GET("/security/audit", middleware.Auth(deps.JWT), middleware.RequireAdmin(), securityHandler.Audit)
	}
}
