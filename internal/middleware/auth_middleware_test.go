package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/lovpen/lovpen-server/internal/auditctx"
	iauth "github.com/lovpen/lovpen-server/internal/auth"
)

const testSecret = "middleware-secret"

func newTestJWT(t *testing.T) *iauth.JWTService {
	t.Helper()
	svc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         testSecret,
		Issuer:         "test-suite",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func secureRouter(svc *iauth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", Auth(svc), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(CtxSubjectKey)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	svc := newTestJWT(t)
	r := secureRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	issued, err := svc.IssueAdminToken("ops")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "ops", payload["subject"])
}

func TestAuthMiddlewareAcceptsQueryTokenForGet(t *testing.T) {
	svc := newTestJWT(t)
	r := secureRouter(svc)

	issued, err := svc.IssueAdminToken("ops")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure?token="+issued.Token, nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	r := secureRouter(newTestJWT(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdminRejectsOtherRoles(t *testing.T) {
	r := secureRouter(newTestJWT(t))

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &iauth.Claims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "guest",
			Issuer:    "test-suite",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdminWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAttachesActor(t *testing.T) {
	svc := newTestJWT(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var actor auditctx.Actor
	var found bool
	r.GET("/secure", Auth(svc), func(c *gin.Context) {
		actor, found = auditctx.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	issued, err := svc.IssueAdminToken("ops")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	req.Header.Set("User-Agent", "ops-console")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, found)
	require.Equal(t, auditctx.Actor{Subject: "ops", IPAddress: "198.51.100.7", UserAgent: "ops-console"}, actor)
}
