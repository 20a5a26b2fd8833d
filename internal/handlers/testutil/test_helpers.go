package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lovpen/lovpen-server/internal/api"
	"github.com/lovpen/lovpen-server/internal/app"
	iauth "github.com/lovpen/lovpen-server/internal/auth"
	"github.com/lovpen/lovpen-server/internal/cache"
	sharedtestutil "github.com/lovpen/lovpen-server/internal/database/testutil"
	"github.com/lovpen/lovpen-server/internal/monitoring"
	"github.com/lovpen/lovpen-server/internal/monitoring/checks"
	"github.com/lovpen/lovpen-server/internal/notifications"
	"github.com/lovpen/lovpen-server/internal/realtime"
	"github.com/lovpen/lovpen-server/internal/security"
	"github.com/lovpen/lovpen-server/internal/services"
	"github.com/lovpen/lovpen-server/pkg/crypto"
	"github.com/lovpen/lovpen-server/pkg/response"
)

const (
	AdminUsername = "ops"
	AdminPassword = "correct horse battery staple"
)

// Env is a fully wired API backed by an in-memory database.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Waitlist *services.WaitlistService
	Hub      *realtime.Hub
	Cache    *cache.DatabaseStore
}

// EnvOption adjusts the configuration before the router is built.
type EnvOption func(*app.Config)

// WithRateLimit enables submission rate limiting.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.Waitlist.RateLimit = app.RateLimitSettings{Enabled: true, Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	hash, err := crypto.HashPassword(AdminPassword)
	require.NoError(t, err)

	cfg := &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{Secret: "test-suite-super-secret-key-32-bytes!!", Issuer: "test-suite", TTL: time.Hour},
			Admin: app.AdminSettings{
				Username:         AdminUsername,
				PasswordHash:     hash,
				LockoutThreshold: 3,
				LockoutDuration:  time.Minute,
			},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	store := cache.NewDatabaseStore(db)
	admin, err := iauth.NewAdminAuthenticator(cfg.Auth.AdminAuthConfig(), store)
	require.NoError(t, err)

	hub := realtime.NewHub()
	svc, err := services.NewWaitlistService(db, services.WithWaitlistEvents(hub))
	require.NoError(t, err)

	builder, err := notifications.NewBuilder()
	require.NoError(t, err)

	health := monitoring.NewHealthManager(time.Second)
	health.RegisterReadiness(checks.Database(db))

	router, err := api.NewRouter(api.Dependencies{
		Config:        cfg,
		Waitlist:      svc,
		Notifications: builder,
		JWT:           jwtSvc,
		Admin:         admin,
		Hub:           hub,
		RateStore:     store,
		Health:        health,
		Security:      security.NewAuditService(cfg, nil),
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Waitlist: svc,
		Hub:      hub,
		Cache:    store,
	}
}

// AdminToken logs in through the API and returns the bearer token.
func (e *Env) AdminToken() string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/admin/login", map[string]string{
		"username": AdminUsername,
		"password": AdminPassword,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &payload)
	require.NotEmpty(e.T, payload.AccessToken)
	return payload.AccessToken
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	require.NotNil(t, dest)
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes a JSON request against the router.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestWithHeaders(method, path, body, token, nil)
}

// RequestWithHeaders is Request with extra headers.
func (e *Env) RequestWithHeaders(method, path string, body any, token string, headers map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	req.RemoteAddr = "192.0.2.10:40000"

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
