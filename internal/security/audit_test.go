package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lovpen/lovpen-server/internal/app"
	"github.com/lovpen/lovpen-server/pkg/crypto"
)

func findCheck(t *testing.T, result Result, id string) Check {
	t.Helper()
	for _, check := range result.Checks {
		if check.ID == id {
			return check
		}
	}
	t.Fatalf("check %s not found", id)
	return Check{}
}

func hardenedConfig(t *testing.T) *app.Config {
	t.Helper()
	hash, err := crypto.HashPassword("operator-password")
	require.NoError(t, err)

	return &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{Secret: strings.Repeat("s", 64), Issuer: "lovpen", TTL: 8 * time.Hour},
			Admin: app.AdminSettings{
				Username:         "ops",
				PasswordHash:     hash,
				LockoutThreshold: 5,
				LockoutDuration:  15 * time.Minute,
			},
		},
		Waitlist: app.WaitlistConfig{
			RateLimit: app.RateLimitSettings{Enabled: true, Requests: 5, Window: time.Minute},
		},
	}
}

func TestAuditServiceRun(t *testing.T) {
	svc := NewAuditService(hardenedConfig(t), nil)
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return fixed })

	result := svc.Run()
	require.Equal(t, fixed, result.CheckedAt)
	require.Len(t, result.Checks, 5)
	require.Equal(t, 5, result.Summary[string(StatusPass)])
	require.Empty(t, result.Failing())
}

func TestAuditServiceFlagsWeakConfiguration(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := hardenedConfig(t)
	cfg.Auth.Admin.PasswordHash = string(weak)
	cfg.Auth.JWT.Secret = "short"
	cfg.Auth.JWT.TTL = 72 * time.Hour
	cfg.Auth.Admin.LockoutThreshold = 50
	cfg.Waitlist.RateLimit.Enabled = false

	result := NewAuditService(cfg, nil).Run()

	require.Equal(t, StatusWarn, findCheck(t, result, CheckAdminCredentials).Status)
	require.Equal(t, StatusFail, findCheck(t, result, CheckJWTSecret).Status)
	require.Equal(t, StatusWarn, findCheck(t, result, CheckTokenTTL).Status)
	require.Equal(t, StatusWarn, findCheck(t, result, CheckAdminLockout).Status)
	require.Equal(t, StatusWarn, findCheck(t, result, CheckSubmissionLimit).Status)
	require.Len(t, result.Failing(), 5)
	require.Zero(t, result.Summary[string(StatusPass)])
}

func TestAuditServiceAdminCredentials(t *testing.T) {
	cfg := hardenedConfig(t)

	cfg.Auth.Admin.PasswordHash = ""
	require.Equal(t, StatusWarn, findCheck(t, NewAuditService(cfg, nil).Run(), CheckAdminCredentials).Status)

	cfg.Auth.Admin.PasswordHash = "plaintext"
	require.Equal(t, StatusFail, findCheck(t, NewAuditService(cfg, nil).Run(), CheckAdminCredentials).Status)
}

func TestAuditServiceJWTSecret(t *testing.T) {
	cfg := hardenedConfig(t)

	generated := NewAuditService(cfg, map[string]bool{"auth.jwt.secret": true}).Run()
	require.Equal(t, StatusWarn, findCheck(t, generated, CheckJWTSecret).Status)

	cfg.Auth.JWT.Secret = strings.Repeat("s", 40)
	require.Equal(t, StatusWarn, findCheck(t, NewAuditService(cfg, nil).Run(), CheckJWTSecret).Status)

	cfg.Auth.JWT.Secret = ""
	require.Equal(t, StatusFail, findCheck(t, NewAuditService(cfg, nil).Run(), CheckJWTSecret).Status)
}

func TestAuditServiceWithoutConfig(t *testing.T) {
	result := NewAuditService(nil, nil).Run()
	require.Len(t, result.Checks, 5)
	require.Equal(t, 5, result.Summary[string(StatusWarn)])
}
