package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/auditctx"
	iauth "github.com/lovpen/lovpen-server/internal/auth"
	"github.com/lovpen/lovpen-server/pkg/errors"
	"github.com/lovpen/lovpen-server/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxSubjectKey = "authSubject"
)

// Auth enforces JWT authentication using the supplied JWT service. Browsers
// cannot set headers on a websocket upgrade, so a `token` query parameter is
// accepted for GET requests.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSubjectKey, claims.Subject)
		c.Request = c.Request.WithContext(auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			Subject:   claims.Subject,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}))
		c.Next()
	}
}

// RequireAdmin rejects authenticated callers whose token lacks the admin role.
// It must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role != iauth.RoleAdmin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(c *gin.Context) (*iauth.Claims, bool) {
	value, exists := c.Get(CtxClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*iauth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		token := strings.TrimSpace(authz[7:])
		return token, token != ""
	}
	if c.Request.Method == http.MethodGet {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, true
		}
	}
	return "", false
}
