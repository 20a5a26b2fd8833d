package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lovpen/lovpen-server/internal/api"
	"github.com/lovpen/lovpen-server/internal/app"
	"github.com/lovpen/lovpen-server/internal/app/maintenance"
	iauth "github.com/lovpen/lovpen-server/internal/auth"
	"github.com/lovpen/lovpen-server/internal/cache"
	"github.com/lovpen/lovpen-server/internal/database"
	"github.com/lovpen/lovpen-server/internal/monitoring"
	"github.com/lovpen/lovpen-server/internal/monitoring/checks"
	"github.com/lovpen/lovpen-server/internal/notifications"
	"github.com/lovpen/lovpen-server/internal/realtime"
	"github.com/lovpen/lovpen-server/internal/security"
	"github.com/lovpen/lovpen-server/internal/services"
	"github.com/lovpen/lovpen-server/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Cache   *cache.DatabaseStore
	Hub     *realtime.Hub
	Cleaner *maintenance.Cleaner
	Health  *monitoring.HealthManager
	Router  *gin.Engine
}

// bootstrapRuntime opens the database and wires services, jobs and the router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, generated map[string]bool, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	success := false
	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	var err error
	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}
	stack.Cache = cache.NewDatabaseStore(stack.DB)
	stack.Hub = realtime.NewHub()

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	admin, err := iauth.NewAdminAuthenticator(cfg.Auth.AdminAuthConfig(), stack.Cache)
	if err != nil {
		return nil, fmt.Errorf("initialise admin authenticator: %w", err)
	}
	if !admin.Enabled() {
		log.Warn("auth.admin.password_hash is empty; admin login is disabled")
	}

	waitlistSvc, err := services.NewWaitlistService(stack.DB,
		services.WithWaitlistEvents(stack.Hub),
		services.WithKnownSources(cfg.Waitlist.Sources...),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise waitlist service: %w", err)
	}

	builder, err := notifications.NewBuilder(notifications.WithShareURL(cfg.Waitlist.ShareURL))
	if err != nil {
		return nil, fmt.Errorf("initialise notification builder: %w", err)
	}

	stack.Health = monitoring.NewHealthManager(healthCheckTimeout)
	stack.Health.RegisterReadiness(checks.Database(stack.DB))

	if cfg.Waitlist.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(waitlistSvc, stack.Cache,
			maintenance.WithStatsSchedule(cfg.Waitlist.Maintenance.StatsSchedule),
			maintenance.WithPurgeSchedule(cfg.Waitlist.Maintenance.PurgeSchedule),
		)
		if err := stack.Cleaner.Start(ctx); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
		stack.Health.RegisterLiveness(checks.Maintenance(stack.Cleaner, 0, nil))
	}

	audit := security.NewAuditService(cfg, generated)
	for _, check := range audit.Run().Failing() {
		log.Warn("security audit", zap.String("check", check.ID), zap.String("status", string(check.Status)), zap.String("message", check.Message))
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:        cfg,
		Waitlist:      waitlistSvc,
		Notifications: builder,
		JWT:           jwtSvc,
		Admin:         admin,
		Hub:           stack.Hub,
		RateStore:     stack.Cache,
		Health:        stack.Health,
		Security:      audit,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and releases the database.
func (s *runtimeStack) Shutdown(_ context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Hub != nil {
		s.Hub.Close()
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:            strings.TrimSpace(cfg.Database.Path),
		DSN:             strings.TrimSpace(cfg.Database.DSN),
		MaxOpenConns:    cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Pool.ConnMaxLifetime,
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite", "sqlite3":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql", "pg":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql", "mariadb":
		dbCfg.Driver = "mysql"
		auth = cfg.Database.MySQL
	default:
		// unsupported drivers surface from database.Open
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	dbCfg.Options = auth.Options
	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
