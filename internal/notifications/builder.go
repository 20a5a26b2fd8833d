package notifications

import (
	"fmt"

	"github.com/lovpen/lovpen-server/internal/waitlist"
)

// DefaultShareURL is linked from the share action unless overridden.
const DefaultShareURL = "https://lovpen.ai"

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithShare sets the capability invoked by the share action.
func WithShare(share ShareCapability) BuilderOption {
	return func(b *Builder) { b.share = share }
}

// WithStatusTracker sets the capability invoked by the track-status action.
func WithStatusTracker(tracker StatusTracker) BuilderOption {
	return func(b *Builder) { b.tracker = tracker }
}

// WithMail sets the capability invoked by the feedback action.
func WithMail(mail MailCapability) BuilderOption {
	return func(b *Builder) { b.mail = mail }
}

// WithDismisser sets what every action calls after running.
func WithDismisser(dismisser Dismisser) BuilderOption {
	return func(b *Builder) { b.dismisser = dismisser }
}

// WithShareURL overrides the URL attached to shared content.
func WithShareURL(url string) BuilderOption {
	return func(b *Builder) {
		if url != "" {
			b.shareURL = url
		}
	}
}

// Builder maps waitlist outcomes to notification configs.
type Builder struct {
	printers  printers
	share     ShareCapability
	tracker   StatusTracker
	mail      MailCapability
	dismisser Dismisser
	shareURL  string
}

// NewBuilder constructs a builder backed by the embedded message catalog.
func NewBuilder(opts ...BuilderOption) (*Builder, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, fmt.Errorf("notifications: build catalog: %w", err)
	}
	b := &Builder{
		printers: newPrinters(cat),
		shareURL: DefaultShareURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Build produces the notification for a successful submission.
func (b *Builder) Build(outcome Outcome, locale string) Config {
	loc := NormalizeLocale(locale)

	if outcome.Position == nil {
		return Config{
			Type:       TypeSuccess,
			Title:      b.printers.sprintf(loc, keyGenericTitle),
			Message:    b.printers.sprintf(loc, keyGenericMessage),
			DurationMS: DurationGeneric,
		}
	}

	position := *outcome.Position
	tier := waitlist.ResolveTier(outcome.Tier, position)
	weeks := waitlist.ResolveWeeks(outcome.EstimatedWeeks, position)
	total := outcome.TotalSubmissions
	if total < position {
		total = position
	}

	cfg := Config{
		Type:        TypeInfo,
		Title:       b.printers.sprintf(loc, tierTitleKey(tier)),
		Message:     b.printers.sprintf(loc, tierMessageKey(tier), position, total, weeks),
		DurationMS:  DurationQueued,
		Celebratory: tier == waitlist.TierPriority && position <= waitlist.PriorityCutoff,
	}

	switch tier {
	case waitlist.TierPriority:
		cfg.Type = TypeSuccess
		cfg.DurationMS = DurationPriority
		cfg.Actions = []Action{b.shareAction(loc)}
	case waitlist.TierRegular:
		cfg.Actions = []Action{b.trackStatusAction(loc, outcome.TrackingToken), b.shareAction(loc)}
	default:
		cfg.Actions = []Action{b.feedbackAction(loc)}
	}
	return cfg
}

// BuildExistingEmail produces the notification for a duplicate email. The
// current position is included when it is known.
func (b *Builder) BuildExistingEmail(info Outcome, locale string) Config {
	loc := NormalizeLocale(locale)

	message := b.printers.sprintf(loc, keyExistingMessageNoQueue)
	if info.Position != nil {
		position := *info.Position
		total := info.TotalSubmissions
		if total < position {
			total = position
		}
		message = b.printers.sprintf(loc, keyExistingMessage, position, total)
	}

	return Config{
		Type:       TypeInfo,
		Title:      b.printers.sprintf(loc, keyExistingTitle),
		Message:    message,
		DurationMS: DurationExistingEmail,
	}
}

// BuildFailure produces the notification shown when a submission could not be stored.
func (b *Builder) BuildFailure(locale string) Config {
	loc := NormalizeLocale(locale)
	return Config{
		Type:       TypeWarning,
		Title:      b.printers.sprintf(loc, keyFailureTitle),
		Message:    b.printers.sprintf(loc, keyFailureMessage),
		DurationMS: DurationGeneric,
	}
}
