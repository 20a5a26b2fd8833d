package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/models"
	"github.com/lovpen/lovpen-server/internal/realtime"
	"github.com/lovpen/lovpen-server/internal/services"
	"github.com/lovpen/lovpen-server/pkg/errors"
	"github.com/lovpen/lovpen-server/pkg/response"
)

// AdminWaitlistHandler exposes waitlist review to operators.
type AdminWaitlistHandler struct {
	svc *services.WaitlistService
	hub *realtime.Hub
}

func NewAdminWaitlistHandler(svc *services.WaitlistService, hub *realtime.Hub) *AdminWaitlistHandler {
	return &AdminWaitlistHandler{svc: svc, hub: hub}
}

type updateWaitlistRequest struct {
	Status        *models.WaitlistStatus `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Priority      *int                   `json:"priority" validate:"omitempty,min=0,max=1000"`
	ClearPriority bool                   `json:"clear_priority"`
	Notes         *string                `json:"notes" validate:"omitempty,max=4000"`
}

// GET /api/admin/waitlist
func (h *AdminWaitlistHandler) List(c *gin.Context) {
	result := h.svc.List(requestContext(c), services.ListInput{
		Page:   parseIntQuery(c, "page", 1),
		Size:   parseIntQuery(c, "size", 20),
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	if !result.Success {
		respondFailure(c, result.Outcome)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Page:       result.Page,
		Size:       result.Size,
		Total:      int(result.Total),
		TotalPages: result.Pages,
	})
}

// PATCH /api/admin/waitlist/:id
func (h *AdminWaitlistHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateWaitlistRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result := h.svc.Update(requestContext(c), id, services.UpdateInput{
		Status:        req.Status,
		Priority:      req.Priority,
		ClearPriority: req.ClearPriority,
		Notes:         req.Notes,
	}, subjectFromContext(c))
	if !result.Success {
		respondFailure(c, result.Outcome)
		return
	}
	response.Success(c, http.StatusOK, result.Data)
}

// DELETE /api/admin/waitlist/:id
func (h *AdminWaitlistHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	result := h.svc.Delete(requestContext(c), id)
	if !result.Success {
		respondFailure(c, result.Outcome)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": result.ID})
}

// GET /api/admin/waitlist/stats
func (h *AdminWaitlistHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(requestContext(c))
	if err != nil {
		_ = c.Error(err)
		response.Error(c, errors.ErrOperationFailed)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GET /api/admin/waitlist/stream
func (h *AdminWaitlistHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}
	h.hub.Serve(subjectFromContext(c), c.Writer, c.Request)
}

func respondFailure(c *gin.Context, outcome services.Outcome) {
	if outcome.Cause != nil {
		_ = c.Error(outcome.Cause)
	}
	response.Error(c, outcome.Err())
}
