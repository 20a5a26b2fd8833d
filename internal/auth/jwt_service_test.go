package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestIssueAndValidateAdminToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "lovpen",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	issued, err := svc.IssueAdminToken("ops")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.True(t, issued.ExpiresAt.Equal(current.Add(time.Hour)))

	claims, err := svc.ValidateAccessToken(issued.Token)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.Equal(t, RoleAdmin, claims.Role)
	require.Equal(t, "lovpen", claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.True(t, claims.IssuedAt.Time.Equal(current))

	_, err = svc.IssueAdminToken("")
	require.Error(t, err)
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: now})
	require.NoError(t, err)
	issued, err := issuer.IssueAdminToken("ops")
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(issued.Token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateAccessTokenWrongIssuer(t *testing.T) {
	issuer, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "someone-else"})
	require.NoError(t, err)
	issued, err := issuer.IssueAdminToken("ops")
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "lovpen"})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(issued.Token)
	require.EqualError(t, err, "jwt: invalid issuer")
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	issued, err := svc.IssueAdminToken("ops")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateAccessToken(issued.Token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidateAccessTokenEmpty(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken("")
	require.Error(t, err)
}
