package notifications

import (
	"strings"
	"sync"
)

// ClientState is the per-client waitlist UI state: whether the visitor has
// applied, which email they used, and the notification slot.
type ClientState struct {
	mu         sync.RWMutex
	hasApplied bool
	email      string
	slot       *Slot
}

// NewClientState wraps slot, or a fresh slot when nil.
func NewClientState(slot *Slot) *ClientState {
	if slot == nil {
		slot = NewSlot()
	}
	return &ClientState{slot: slot}
}

// HasApplied reports whether a submission succeeded or hit an existing entry.
func (c *ClientState) HasApplied() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasApplied
}

// SelectedEmail returns the email last used to apply.
func (c *ClientState) SelectedEmail() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.email
}

// MarkApplied records a submission for email.
func (c *ClientState) MarkApplied(email string) {
	c.mu.Lock()
	c.hasApplied = true
	c.email = strings.TrimSpace(email)
	c.mu.Unlock()
}

// Show publishes cfg to the slot.
func (c *ClientState) Show(cfg Config) {
	c.slot.Publish(cfg)
}

// Dismiss hides the current notification.
func (c *ClientState) Dismiss() {
	c.slot.Dismiss()
}

// Notification returns the notification currently held by the slot, if any.
func (c *ClientState) Notification() *Config {
	return c.slot.State().Config
}

// Slot exposes the underlying slot.
func (c *ClientState) Slot() *Slot {
	return c.slot
}

// Reset clears the applied flag and email and dismisses any notification.
func (c *ClientState) Reset() {
	c.mu.Lock()
	c.hasApplied = false
	c.email = ""
	c.mu.Unlock()
	c.slot.Dismiss()
}
