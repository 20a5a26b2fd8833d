package models

import (
	"time"
)

// CacheEntry stores a counter or value for the database-backed cache.
// A zero ExpiresAt never expires.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name independent of the struct name.
func (CacheEntry) TableName() string {
	return "cache_entries"
}
