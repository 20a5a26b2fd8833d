package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WaitlistStatus is the review state of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistStatusPending  WaitlistStatus = "pending"
	WaitlistStatusApproved WaitlistStatus = "approved"
	WaitlistStatusRejected WaitlistStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistStatusPending, WaitlistStatusApproved, WaitlistStatusRejected:
		return true
	}
	return false
}

// WaitlistEntry is one application to join the product waitlist.
// CreatedAt is the queue ordering key and must never be rewritten.
type WaitlistEntry struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string         `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Company   *string        `gorm:"type:varchar(255)" json:"company,omitempty"`
	UseCase   *string        `gorm:"type:text" json:"use_case,omitempty"`
	Source    string         `gorm:"type:varchar(64);not null;index" json:"source"`
	Status    WaitlistStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_waitlist_status_created,priority:1" json:"status"`
	Priority  *int           `json:"priority,omitempty"`
	Notes     *string        `gorm:"type:text" json:"notes,omitempty"`
	Locale    string         `gorm:"type:varchar(8)" json:"locale,omitempty"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`

	TrackingToken string `gorm:"type:varchar(36);not null;uniqueIndex" json:"tracking_token"`

	CreatedAt  time.Time  `gorm:"not null;index:idx_waitlist_status_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy *string    `gorm:"type:varchar(255)" json:"reviewed_by,omitempty"`
}

// TableName pins the table name independent of the struct name.
func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// BeforeCreate assigns the pending status and a tracking token when absent.
func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.Status == "" {
		e.Status = WaitlistStatusPending
	}
	if e.TrackingToken == "" {
		e.TrackingToken = uuid.NewString()
	}
	return nil
}
