package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lovpen/lovpen-server/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.Server.TrustedProxies)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])
	require.Equal(t, 40, cfg.Database.Pool.MaxOpenConns)
	require.Equal(t, 5, cfg.Database.Pool.MaxIdleConns)
	require.Equal(t, 30*time.Minute, cfg.Database.Pool.ConnMaxLifetime)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "lovpen", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "ops", cfg.Auth.Admin.Username)
	require.NotEmpty(t, cfg.Auth.Admin.PasswordHash)
	require.Equal(t, 7, cfg.Auth.Admin.LockoutThreshold)
	require.Equal(t, 20*time.Minute, cfg.Auth.Admin.LockoutDuration)

	require.Equal(t, "https://example.com/waitlist", cfg.Waitlist.ShareURL)
	require.Equal(t, []string{"hero", "pricing-pro"}, cfg.Waitlist.Sources)
	require.True(t, cfg.Waitlist.RateLimit.Enabled)
	require.Equal(t, 3, cfg.Waitlist.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Waitlist.RateLimit.Window)
	require.True(t, cfg.Waitlist.Maintenance.Enabled)
	require.Equal(t, "*/30 * * * * *", cfg.Waitlist.Maintenance.StatsSchedule)
	require.Equal(t, "0 0 * * * *", cfg.Waitlist.Maintenance.PurgeSchedule)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "json", cfg.Server.LogFormat)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/lovpen.sqlite", cfg.Database.Path)
	require.Equal(t, "admin", cfg.Auth.Admin.Username)
	require.Empty(t, cfg.Auth.Admin.PasswordHash)
	require.Equal(t, 5, cfg.Waitlist.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.Waitlist.RateLimit.Window)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("LOVPEN_SERVER_PORT", "7070")
	t.Setenv("LOVPEN_AUTH_ADMIN_USERNAME", "root")
	t.Setenv("LOVPEN_WAITLIST_RATE_LIMIT_REQUESTS", "11")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "root", cfg.Auth.Admin.Username)
	require.Equal(t, 11, cfg.Waitlist.RateLimit.Requests)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			JWT: JWTSettings{
				Secret: "secret",
				Issuer: "issuer",
				TTL:    30 * time.Minute,
			},
			Admin: AdminSettings{
				Username:         "ops",
				PasswordHash:     "hash",
				LockoutThreshold: 4,
				LockoutDuration:  10 * time.Minute,
			},
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.Auth.JWTServiceConfig())

	require.Equal(t, auth.AdminConfig{
		Username:         "ops",
		PasswordHash:     "hash",
		LockoutThreshold: 4,
		LockoutDuration:  10 * time.Minute,
	}, cfg.Auth.AdminAuthConfig())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.JWTServiceConfig().AccessTokenTTL)
	require.Equal(t, "admin", cfg.AdminAuthConfig().Username)
}
