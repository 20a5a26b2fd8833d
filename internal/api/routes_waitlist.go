package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/handlers"
	"github.com/lovpen/lovpen-server/internal/middleware"
)

func registerWaitlistRoutes(group *gin.RouterGroup, deps Dependencies) {
	h := handlers.NewWaitlistHandler(deps.Waitlist, deps.Notifications)

	limit := deps.Config.Waitlist.RateLimit
	if limit.Enabled && deps.RateStore != nil {
		group.POST("", middleware.RateLimit(deps.RateStore, limit.Requests, limit.Window), h.Submit)
	} else {
		group.POST("", h.Submit)
	}
	group.GET("/status/:token", h.Status)
}
