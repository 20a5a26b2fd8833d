package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/security"
	"github.com/lovpen/lovpen-server/pkg/response"
)

// SecurityHandler reports the configuration audit to operators.
type SecurityHandler struct {
	audit *security.AuditService
}

func NewSecurityHandler(audit *security.AuditService) *SecurityHandler {
	return &SecurityHandler{audit: audit}
}

// GET /api/admin/security/audit
func (h *SecurityHandler) Audit(c *gin.Context) {
	response.Success(c, http.StatusOK, h.audit.Run())
}
