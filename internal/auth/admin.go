package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lovpen/lovpen-server/internal/cache"
	"github.com/lovpen/lovpen-server/pkg/crypto"
)

var (
	// ErrInvalidCredentials is returned when the supplied username/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that too many failed attempts were made recently.
	ErrAccountLocked = errors.New("auth: account locked")
	// ErrAdminDisabled is returned when no admin password hash is configured.
	ErrAdminDisabled = errors.New("auth: admin login disabled")
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
)

// AdminConfig configures the single operator account.
type AdminConfig struct {
	Username         string
	PasswordHash     string
	LockoutThreshold int
	LockoutDuration  time.Duration
}

// AdminAuthenticator verifies operator credentials against a bcrypt hash and
// locks the account after repeated failures. Failure counters live in the
// shared cache so every instance sees the same lockout.
type AdminAuthenticator struct {
	username  string
	hash      string
	store     cache.Store
	threshold int
	duration  time.Duration
}

// NewAdminAuthenticator builds an authenticator. A nil store disables lockout.
func NewAdminAuthenticator(cfg AdminConfig, store cache.Store) (*AdminAuthenticator, error) {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil, errors.New("admin auth: username is required")
	}

	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}
	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = defaultLockoutDuration
	}

	return &AdminAuthenticator{
		username:  username,
		hash:      strings.TrimSpace(cfg.PasswordHash),
		store:     store,
		threshold: threshold,
		duration:  duration,
	}, nil
}

// Enabled reports whether a password hash is configured.
func (a *AdminAuthenticator) Enabled() bool {
	return a != nil && a.hash != ""
}

// Authenticate returns the admin subject when the credentials match.
func (a *AdminAuthenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	if !a.Enabled() {
		return "", ErrAdminDisabled
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	locked, err := a.locked(ctx)
	if err != nil {
		return "", err
	}
	if locked {
		return "", ErrAccountLocked
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(username)), []byte(strings.ToLower(a.username))) == 1
	passOK := crypto.VerifyPassword(a.hash, password)
	if !userOK || !passOK {
		return "", a.recordFailure(ctx)
	}

	if a.store != nil {
		if err := a.store.Delete(ctx, a.failureKey(), a.lockKey()); err != nil {
			return "", fmt.Errorf("admin auth: reset failures: %w", err)
		}
	}
	return a.username, nil
}

func (a *AdminAuthenticator) locked(ctx context.Context) (bool, error) {
	if a.store == nil {
		return false, nil
	}
	_, ok, err := a.store.Get(ctx, a.lockKey())
	if err != nil {
		return false, fmt.Errorf("admin auth: read lock: %w", err)
	}
	return ok, nil
}

func (a *AdminAuthenticator) recordFailure(ctx context.Context) error {
	if a.store == nil {
		return ErrInvalidCredentials
	}
	count, _, err := a.store.IncrementWithTTL(ctx, a.failureKey(), a.duration)
	if err != nil {
		return fmt.Errorf("admin auth: record failure: %w", err)
	}
	if count < int64(a.threshold) {
		return ErrInvalidCredentials
	}
	if err := a.store.Set(ctx, a.lockKey(), []byte("1"), a.duration); err != nil {
		return fmt.Errorf("admin auth: lock account: %w", err)
	}
	return ErrAccountLocked
}

func (a *AdminAuthenticator) failureKey() string {
	return "auth:admin:failures:" + strings.ToLower(a.username)
}

func (a *AdminAuthenticator) lockKey() string {
	return "auth:admin:locked:" + strings.ToLower(a.username)
}
