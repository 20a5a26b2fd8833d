package api

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/app"
	iauth "github.com/lovpen/lovpen-server/internal/auth"
	"github.com/lovpen/lovpen-server/internal/middleware"
	"github.com/lovpen/lovpen-server/internal/monitoring"
	"github.com/lovpen/lovpen-server/internal/notifications"
	"github.com/lovpen/lovpen-server/internal/realtime"
	"github.com/lovpen/lovpen-server/internal/security"
	"github.com/lovpen/lovpen-server/internal/services"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Config        *app.Config
	Waitlist      *services.WaitlistService
	Notifications *notifications.Builder
	JWT           *iauth.JWTService
	Admin         *iauth.AdminAuthenticator
	Hub           *realtime.Hub
	RateStore     middleware.RateCounter
	Health        *monitoring.HealthManager
	Security      *security.AuditService
}

func (d Dependencies) validate() error {
	var missing []error
	if d.Config == nil {
		missing = append(missing, errors.New("config must be provided"))
	}
	if d.Waitlist == nil {
		missing = append(missing, errors.New("waitlist service must be provided"))
	}
	if d.Notifications == nil {
		missing = append(missing, errors.New("notification builder must be provided"))
	}
	if d.JWT == nil {
		missing = append(missing, errors.New("jwt service must be provided"))
	}
	if d.Admin == nil {
		missing = append(missing, errors.New("admin authenticator must be provided"))
	}
	return errors.Join(missing...)
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("api: trusted proxies: %w", err)
	}

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.NoRoute(middleware.NotFoundHandler)

	registerHealthRoutes(r, deps)
	registerMetricsRoutes(r, deps)
	registerWaitlistRoutes(r.Group("/api/waitlist"), deps)
	registerAdminRoutes(r.Group("/api/admin"), deps)

	return r, nil
}
