// Package notifications turns waitlist outcomes into localized notification
// descriptors and drives their single-slot display lifecycle.
package notifications

import (
	"context"
	"time"

	"github.com/lovpen/lovpen-server/internal/waitlist"
)

// Type is the visual severity of a notification.
type Type string

const (
	TypeSuccess Type = "success"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
)

// Display durations in milliseconds. Zero disables auto-dismiss.
const (
	DurationGeneric       = 6000
	DurationExistingEmail = 7000
	DurationQueued        = 8000
	DurationPriority      = 12000
)

// Action keys.
const (
	ActionShare       = "share"
	ActionTrackStatus = "track-status"
	ActionFeedback    = "feedback"
)

// Action is a button attached to a notification. Handler is never serialized.
type Action struct {
	Key     string                          `json:"key"`
	Label   string                          `json:"label"`
	Handler func(ctx context.Context) error `json:"-"`
}

// Config describes one notification.
type Config struct {
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	DurationMS  int      `json:"duration_ms"`
	Celebratory bool     `json:"celebratory"`
	Actions     []Action `json:"actions,omitempty"`
}

// Duration returns the auto-dismiss delay, or 0 when the notification is sticky.
func (c Config) Duration() time.Duration {
	if c.DurationMS <= 0 {
		return 0
	}
	return time.Duration(c.DurationMS) * time.Millisecond
}

// ActionKeys lists the keys of the attached actions in order.
func (c Config) ActionKeys() []string {
	keys := make([]string, 0, len(c.Actions))
	for _, action := range c.Actions {
		keys = append(keys, action.Key)
	}
	return keys
}

// Outcome is what the builder needs to know about a submission. Tier and
// EstimatedWeeks may be left nil and are then derived from Position.
type Outcome struct {
	Position         *int
	TotalSubmissions int
	Tier             *waitlist.Tier
	EstimatedWeeks   *int
	TrackingToken    string
}

// OutcomeFromQueue adapts a computed queue position. A nil queue yields an
// outcome without a position.
func OutcomeFromQueue(queue *waitlist.QueuePosition, trackingToken string) Outcome {
	if queue == nil {
		return Outcome{TrackingToken: trackingToken}
	}
	position := queue.Position
	tier := queue.Tier
	weeks := queue.EstimatedWaitWeeks
	return Outcome{
		Position:         &position,
		TotalSubmissions: queue.TotalSubmissions,
		Tier:             &tier,
		EstimatedWeeks:   &weeks,
		TrackingToken:    trackingToken,
	}
}
