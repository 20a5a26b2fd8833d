package app

import (
	"github.com/lovpen/lovpen-server/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// AdminAuthConfig converts AuthConfig into AdminAuthenticator parameters.
func (c AuthConfig) AdminAuthConfig() auth.AdminConfig {
	username := c.Admin.Username
	if username == "" {
		username = "admin"
	}

	return auth.AdminConfig{
		Username:         username,
		PasswordHash:     c.Admin.PasswordHash,
		LockoutThreshold: c.Admin.LockoutThreshold,
		LockoutDuration:  c.Admin.LockoutDuration,
	}
}
