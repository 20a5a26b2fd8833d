package security

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lovpen/lovpen-server/internal/app"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

const (
	CheckAdminCredentials = "admin_credentials"
	CheckJWTSecret        = "jwt_secret_strength"
	CheckTokenTTL         = "admin_token_ttl"
	CheckAdminLockout     = "admin_lockout"
	CheckSubmissionLimit  = "submission_rate_limit"

	minSecretBytes         = 32
	recommendedSecretBytes = 48
	maxRecommendedTTL      = 24 * time.Hour
	maxRecommendedAttempts = 10
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a simple status summary.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Failing returns the checks that did not pass.
func (r Result) Failing() []Check {
	var out []Check
	for _, check := range r.Checks {
		if check.Status != StatusPass {
			out = append(out, check)
		}
	}
	return out
}

// AuditService evaluates the security posture of the loaded configuration.
type AuditService struct {
	cfg       *app.Config
	generated map[string]bool
	now       func() time.Time
}

// NewAuditService constructs the audit service. generated lists config keys
// whose values were produced at startup rather than configured.
func NewAuditService(cfg *app.Config, generated map[string]bool) *AuditService {
	return &AuditService{
		cfg:       cfg,
		generated: generated,
		now:       time.Now,
	}
}

// WithClock overrides the clock used in results (primarily for testing).
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes all audit checks and returns their outcome.
func (s *AuditService) Run() Result {
	checks := []Check{
		s.checkAdminCredentials(),
		s.checkJWTSecret(),
		s.checkTokenTTL(),
		s.checkAdminLockout(),
		s.checkSubmissionLimit(),
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

func configMissing(id string) Check {
	return Check{
		ID:          id,
		Status:      StatusWarn,
		Message:     "Configuration not loaded; unable to evaluate.",
		Remediation: "Load configuration before running the security audit.",
	}
}

func (s *AuditService) checkAdminCredentials() Check {
	if s.cfg == nil {
		return configMissing(CheckAdminCredentials)
	}

	hash := strings.TrimSpace(s.cfg.Auth.Admin.PasswordHash)
	if hash == "" {
		return Check{
			ID:          CheckAdminCredentials,
			Status:      StatusWarn,
			Message:     "Admin password hash is empty; admin login is disabled.",
			Remediation: "Generate a hash with `lovpen hash-password` and set LOVPEN_AUTH_ADMIN_PASSWORD_HASH.",
		}
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return Check{
			ID:          CheckAdminCredentials,
			Status:      StatusFail,
			Message:     "Admin password hash is not a valid bcrypt hash.",
			Remediation: "Regenerate the hash with `lovpen hash-password`.",
		}
	}
	if cost < bcrypt.DefaultCost {
		return Check{
			ID:          CheckAdminCredentials,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Admin password hash uses bcrypt cost %d.", cost),
			Remediation: fmt.Sprintf("Regenerate the hash with a cost of at least %d.", bcrypt.DefaultCost),
			Details:     map[string]any{"cost": cost},
		}
	}

	return Check{
		ID:      CheckAdminCredentials,
		Status:  StatusPass,
		Message: "Admin credentials configured.",
		Details: map[string]any{"username": s.cfg.Auth.Admin.Username, "cost": cost},
	}
}

func (s *AuditService) checkJWTSecret() Check {
	if s.cfg == nil {
		return configMissing(CheckJWTSecret)
	}

	length := len(s.cfg.Auth.JWT.Secret)
	switch {
	case length == 0:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusFail,
			Message:     "Missing JWT signing secret.",
			Remediation: fmt.Sprintf("Provide a random signing secret of at least %d bytes.", minSecretBytes),
		}
	case length < minSecretBytes:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: fmt.Sprintf("Use a randomly generated secret of at least %d bytes.", minSecretBytes),
		}
	case s.generated["auth.jwt.secret"]:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusWarn,
			Message:     "JWT signing secret was generated at startup; admin tokens are lost on restart.",
			Remediation: "Set LOVPEN_AUTH_JWT_SECRET to a persistent random value.",
			Details:     map[string]any{"length": length},
		}
	case length < recommendedSecretBytes:
		return Check{
			ID:          CheckJWTSecret,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("JWT signing secret is %d bytes. Consider increasing to %d+ bytes.", length, recommendedSecretBytes),
			Remediation: fmt.Sprintf("Increase the length of LOVPEN_AUTH_JWT_SECRET to at least %d bytes.", recommendedSecretBytes),
			Details:     map[string]any{"length": length},
		}
	default:
		return Check{
			ID:      CheckJWTSecret,
			Status:  StatusPass,
			Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
			Details: map[string]any{"length": length},
		}
	}
}

func (s *AuditService) checkTokenTTL() Check {
	if s.cfg == nil {
		return configMissing(CheckTokenTTL)
	}

	ttl := s.cfg.Auth.JWTServiceConfig().AccessTokenTTL
	if ttl > maxRecommendedTTL {
		return Check{
			ID:          CheckTokenTTL,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Admin token TTL (%s) exceeds recommended maximum (%s).", ttl, maxRecommendedTTL),
			Remediation: "Reduce auth.jwt.access_token_ttl to limit credential exposure.",
			Details:     map[string]any{"ttl": ttl.String()},
		}
	}

	return Check{
		ID:      CheckTokenTTL,
		Status:  StatusPass,
		Message: fmt.Sprintf("Admin token TTL is %s.", ttl),
		Details: map[string]any{"ttl": ttl.String()},
	}
}

func (s *AuditService) checkAdminLockout() Check {
	if s.cfg == nil {
		return configMissing(CheckAdminLockout)
	}

	adminCfg := s.cfg.Auth.AdminAuthConfig()
	if adminCfg.LockoutThreshold > maxRecommendedAttempts {
		return Check{
			ID:          CheckAdminLockout,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Admin lockout allows %d failed attempts.", adminCfg.LockoutThreshold),
			Remediation: fmt.Sprintf("Lower auth.admin.lockout_threshold to %d or fewer.", maxRecommendedAttempts),
			Details:     map[string]any{"threshold": adminCfg.LockoutThreshold},
		}
	}

	return Check{
		ID:      CheckAdminLockout,
		Status:  StatusPass,
		Message: "Admin lockout threshold configured.",
		Details: map[string]any{"threshold": adminCfg.LockoutThreshold},
	}
}

func (s *AuditService) checkSubmissionLimit() Check {
	if s.cfg == nil {
		return configMissing(CheckSubmissionLimit)
	}

	limit := s.cfg.Waitlist.RateLimit
	if !limit.Enabled || limit.Requests <= 0 || limit.Window <= 0 {
		return Check{
			ID:          CheckSubmissionLimit,
			Status:      StatusWarn,
			Message:     "Waitlist submissions are not rate limited.",
			Remediation: "Enable waitlist.rate_limit with a positive request count and window.",
		}
	}

	return Check{
		ID:      CheckSubmissionLimit,
		Status:  StatusPass,
		Message: fmt.Sprintf("Submissions limited to %d per %s per client.", limit.Requests, limit.Window),
		Details: map[string]any{"requests": limit.Requests, "window": limit.Window.String()},
	}
}
