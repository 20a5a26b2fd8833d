package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lovpen/lovpen-server/internal/notifications"
	"github.com/lovpen/lovpen-server/internal/services"
	"github.com/lovpen/lovpen-server/pkg/response"
)

// WaitlistHandler serves the public signup form.
type WaitlistHandler struct {
	svc     *services.WaitlistService
	builder *notifications.Builder
}

func NewWaitlistHandler(svc *services.WaitlistService, builder *notifications.Builder) *WaitlistHandler {
	return &WaitlistHandler{svc: svc, builder: builder}
}

type submitWaitlistRequest struct {
	Email    string         `json:"email" validate:"required,email,max=320"`
	Name     string         `json:"name" validate:"required,notblank,max=255"`
	Company  *string        `json:"company" validate:"omitempty,max=255"`
	UseCase  *string        `json:"use_case" validate:"omitempty,max=4000"`
	Source   string         `json:"source" validate:"required,source_tag"`
	Locale   string         `json:"locale" validate:"omitempty,max=16"`
	Metadata map[string]any `json:"metadata"`
}

// SubmitResponse is the payload of a successful signup.
type SubmitResponse struct {
	Entry        *services.WaitlistEntryDTO `json:"entry"`
	Notification notifications.Config       `json:"notification"`
}

// ConflictResponse accompanies a 409 for an already registered email.
type ConflictResponse struct {
	WaitlistInfo *services.WaitlistEntryDTO `json:"waitlist_info,omitempty"`
	Notification notifications.Config       `json:"notification"`
}

// FailureResponse accompanies a failed signup so the form can still show a notice.
type FailureResponse struct {
	Notification notifications.Config `json:"notification"`
}

// POST /api/waitlist
func (h *WaitlistHandler) Submit(c *gin.Context) {
	var req submitWaitlistRequest
	if !bindAndValidate(c, &req) {
		return
	}

	locale := resolveLocale(c, req.Locale)
	result := h.svc.Submit(requestContext(c), services.SubmitInput{
		Email:    req.Email,
		Name:     req.Name,
		Company:  req.Company,
		UseCase:  req.UseCase,
		Source:   req.Source,
		Locale:   string(locale),
		Metadata: req.Metadata,
	})

	if result.Success {
		outcome := notifications.OutcomeFromQueue(result.Data.Queue(), result.Data.TrackingToken)
		response.Success(c, http.StatusCreated, SubmitResponse{
			Entry:        result.Data,
			Notification: h.builder.Build(outcome, string(locale)),
		})
		return
	}

	switch result.Code {
	case services.CodeConflict:
		var outcome notifications.Outcome
		if result.WaitlistInfo != nil {
			outcome = notifications.OutcomeFromQueue(result.WaitlistInfo.Queue(), "")
		}
		response.ErrorWithData(c, result.Err(), ConflictResponse{
			WaitlistInfo: result.WaitlistInfo,
			Notification: h.builder.BuildExistingEmail(outcome, string(locale)),
		})
	case services.CodeValidation:
		response.Error(c, result.Err())
	default:
		if result.Cause != nil {
			_ = c.Error(result.Cause)
		}
		response.ErrorWithData(c, result.Err(), FailureResponse{
			Notification: h.builder.BuildFailure(string(locale)),
		})
	}
}

// GET /api/waitlist/status/:token
func (h *WaitlistHandler) Status(c *gin.Context) {
	result := h.svc.Lookup(requestContext(c), c.Param("token"))
	if !result.Success {
		if result.Cause != nil {
			_ = c.Error(result.Cause)
		}
		response.Error(c, result.Err())
		return
	}

	// The public status page never exposes reviewer fields.
	entry := *result.Data
	entry.Notes = nil
	entry.ReviewedBy = nil
	entry.Priority = nil
	entry.Metadata = nil
	response.Success(c, http.StatusOK, entry)
}

// resolveLocale prefers the explicit body value, then the query string, then
// the Accept-Language header.
func resolveLocale(c *gin.Context, fromBody string) notifications.Locale {
	if v := strings.TrimSpace(fromBody); v != "" {
		return notifications.NormalizeLocale(v)
	}
	if v := strings.TrimSpace(c.Query("locale")); v != "" {
		return notifications.NormalizeLocale(v)
	}
	if locale := notifications.LocaleFromAcceptLanguage(c.GetHeader("Accept-Language")); locale != "" {
		return locale
	}
	return notifications.NormalizeLocale("")
}
