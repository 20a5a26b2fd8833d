package handlers

import (
	stdErrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/lovpen/lovpen-server/internal/auth"
	"github.com/lovpen/lovpen-server/pkg/errors"
	"github.com/lovpen/lovpen-server/pkg/metrics"
	"github.com/lovpen/lovpen-server/pkg/response"
)

var (
	errAccountLocked = errors.New("ACCOUNT_LOCKED", "Too many failed attempts, try again later", http.StatusTooManyRequests)
	errAdminDisabled = errors.New("ADMIN_DISABLED", "Admin login is not configured", http.StatusServiceUnavailable)
)

// AdminAuthHandler issues operator tokens.
type AdminAuthHandler struct {
	admin *iauth.AdminAuthenticator
	jwt   *iauth.JWTService
}

func NewAdminAuthHandler(admin *iauth.AdminAuthenticator, jwt *iauth.JWTService) *AdminAuthHandler {
	return &AdminAuthHandler{admin: admin, jwt: jwt}
}

type adminLoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type adminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Subject     string    `json:"subject"`
}

// POST /api/admin/login
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	subject, err := h.admin.Authenticate(requestContext(c), req.Username, req.Password)
	if err != nil {
		metrics.AdminLoginAttempts.WithLabelValues("failure").Inc()
		switch {
		case stdErrors.Is(err, iauth.ErrInvalidCredentials):
			response.Error(c, errors.ErrInvalidCredentials)
		case stdErrors.Is(err, iauth.ErrAccountLocked):
			response.Error(c, errAccountLocked)
		case stdErrors.Is(err, iauth.ErrAdminDisabled):
			response.Error(c, errAdminDisabled)
		default:
			_ = c.Error(err)
			response.Error(c, errors.ErrInternalServer)
		}
		return
	}

	issued, err := h.jwt.IssueAdminToken(subject)
	if err != nil {
		metrics.AdminLoginAttempts.WithLabelValues("failure").Inc()
		_ = c.Error(err)
		response.Error(c, errors.ErrInternalServer)
		return
	}

	metrics.AdminLoginAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, adminLoginResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt.UTC(),
		Subject:     subject,
	})
}
