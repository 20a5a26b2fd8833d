package services

import (
	"encoding/json"
	"time"

	"github.com/lovpen/lovpen-server/internal/models"
	"github.com/lovpen/lovpen-server/internal/waitlist"
	apperrors "github.com/lovpen/lovpen-server/pkg/errors"
)

// ResultCode classifies a failed waitlist operation.
type ResultCode string

const (
	CodeValidation ResultCode = "validation"
	CodeConflict   ResultCode = "conflict"
	CodeNotFound   ResultCode = "not_found"
	CodeStore      ResultCode = "store"
)

const (
	msgEmailExists   = "Email already exists"
	msgEntryNotFound = "Waitlist entry not found"
	msgStoreFailure  = "Failed to process waitlist request"
)

// Outcome is the tagged part shared by every waitlist result. Operations never
// return Go errors; callers branch on Success and Code.
type Outcome struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Code    ResultCode `json:"code,omitempty"`
	Cause   error      `json:"-"`
}

// Err converts a failed outcome into an application error for the HTTP layer.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	switch o.Code {
	case CodeValidation:
		return apperrors.NewBadRequest(o.Error)
	case CodeConflict:
		return apperrors.ErrEmailExists
	case CodeNotFound:
		return apperrors.ErrNotFound.WithMessage(o.Error)
	default:
		return apperrors.ErrOperationFailed.WithMessage(o.Error).WithInternal(o.Cause)
	}
}

func succeeded() Outcome {
	return Outcome{Success: true}
}

func failed(code ResultCode, message string, cause error) Outcome {
	return Outcome{Error: message, Code: code, Cause: cause}
}

// WaitlistEntryDTO is the public shape of an entry. The queue fields are
// flattened into the entry and omitted when no position applies.
type WaitlistEntryDTO struct {
	ID            uint                  `json:"id"`
	Email         string                `json:"email"`
	Name          string                `json:"name"`
	Company       *string               `json:"company,omitempty"`
	UseCase       *string               `json:"use_case,omitempty"`
	Source        string                `json:"source"`
	Status        models.WaitlistStatus `json:"status"`
	Priority      *int                  `json:"priority,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	Locale        string                `json:"locale,omitempty"`
	Metadata      map[string]any        `json:"metadata,omitempty"`
	TrackingToken string                `json:"tracking_token"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ReviewedAt    *time.Time            `json:"reviewed_at,omitempty"`
	ReviewedBy    *string               `json:"reviewed_by,omitempty"`

	*waitlist.QueuePosition
}

// Queue returns the derived queue position, or nil when none applies.
func (d *WaitlistEntryDTO) Queue() *waitlist.QueuePosition {
	if d == nil {
		return nil
	}
	return d.QueuePosition
}

func toWaitlistEntryDTO(entry models.WaitlistEntry, queue *waitlist.QueuePosition) WaitlistEntryDTO {
	dto := WaitlistEntryDTO{
		ID:            entry.ID,
		Email:         entry.Email,
		Name:          entry.Name,
		Company:       entry.Company,
		UseCase:       entry.UseCase,
		Source:        entry.Source,
		Status:        entry.Status,
		Priority:      entry.Priority,
		Notes:         entry.Notes,
		Locale:        entry.Locale,
		TrackingToken: entry.TrackingToken,
		CreatedAt:     entry.CreatedAt.UTC(),
		UpdatedAt:     entry.UpdatedAt.UTC(),
		ReviewedBy:    entry.ReviewedBy,
		QueuePosition: queue,
	}
	if entry.ReviewedAt != nil {
		reviewed := entry.ReviewedAt.UTC()
		dto.ReviewedAt = &reviewed
	}
	if len(entry.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(entry.Metadata, &meta); err == nil {
			dto.Metadata = meta
		}
	}
	return dto
}

// SubmitResult is returned by Submit and Lookup. On a duplicate email,
// WaitlistInfo carries the already registered entry.
type SubmitResult struct {
	Outcome
	Data         *WaitlistEntryDTO `json:"data,omitempty"`
	WaitlistInfo *WaitlistEntryDTO `json:"waitlist_info,omitempty"`
}

// ListResult is one page of entries for the admin dashboard.
type ListResult struct {
	Outcome
	Items []WaitlistEntryDTO `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
	Pages int                `json:"pages"`
}

// UpdateResult carries the entry after an admin patch.
type UpdateResult struct {
	Outcome
	Data *WaitlistEntryDTO `json:"data,omitempty"`
}

// DeleteResult reports the outcome of a hard delete.
type DeleteResult struct {
	Outcome
	ID uint `json:"id,omitempty"`
}

// WaitlistStats summarises the queue.
type WaitlistStats struct {
	Total         int64                           `json:"total"`
	ByStatus      map[models.WaitlistStatus]int64 `json:"by_status"`
	PendingByTier map[waitlist.Tier]int64         `json:"pending_by_tier"`
}
