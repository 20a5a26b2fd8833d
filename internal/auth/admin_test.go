package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lovpen/lovpen-server/internal/cache"
	"github.com/lovpen/lovpen-server/internal/database/testutil"
	"github.com/lovpen/lovpen-server/pkg/crypto"
)

func newTestAuthenticator(t *testing.T, withStore bool) *AdminAuthenticator {
	t.Helper()
	hash, err := crypto.HashPassword("correct horse")
	require.NoError(t, err)

	var store cache.Store
	if withStore {
		store = cache.NewDatabaseStore(testutil.MustOpenTestDB(t, testutil.WithAutoMigrate()))
	}

	a, err := NewAdminAuthenticator(AdminConfig{
		Username:         "ops",
		PasswordHash:     hash,
		LockoutThreshold: 3,
		LockoutDuration:  time.Minute,
	}, store)
	require.NoError(t, err)
	return a
}

func TestNewAdminAuthenticatorRequiresUsername(t *testing.T) {
	_, err := NewAdminAuthenticator(AdminConfig{}, nil)
	require.Error(t, err)
}

func TestAdminAuthenticatorDisabledWithoutHash(t *testing.T) {
	a, err := NewAdminAuthenticator(AdminConfig{Username: "ops"}, nil)
	require.NoError(t, err)
	require.False(t, a.Enabled())

	_, err = a.Authenticate(context.Background(), "ops", "anything")
	require.ErrorIs(t, err, ErrAdminDisabled)
}

func TestAdminAuthenticatorSuccess(t *testing.T) {
	a := newTestAuthenticator(t, false)

	subject, err := a.Authenticate(context.Background(), "OPS", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "ops", subject)

	_, err = a.Authenticate(context.Background(), "ops", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(context.Background(), "someone", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(context.Background(), "ops", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminAuthenticatorLocksAfterThreshold(t *testing.T) {
	a := newTestAuthenticator(t, true)
	ctx := context.Background()

	_, err := a.Authenticate(ctx, "ops", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "ops", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "ops", "nope")
	require.ErrorIs(t, err, ErrAccountLocked)

	_, err = a.Authenticate(ctx, "ops", "correct horse")
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestAdminAuthenticatorSuccessResetsFailures(t *testing.T) {
	a := newTestAuthenticator(t, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := a.Authenticate(ctx, "ops", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := a.Authenticate(ctx, "ops", "correct horse")
	require.NoError(t, err)

	_, err = a.Authenticate(ctx, "ops", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
