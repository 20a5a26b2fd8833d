package notifications

import "context"

// ShareContent is handed to the share capability.
type ShareContent struct {
	Title string
	Text  string
	URL   string
}

// ShareCapability shares content through whatever channel the client offers.
type ShareCapability interface {
	Share(ctx context.Context, content ShareContent) error
}

// StatusTracker opens the queue status view for a tracking token.
type StatusTracker interface {
	TrackStatus(ctx context.Context, trackingToken string) error
}

// MailCapability composes a feedback email.
type MailCapability interface {
	ComposeFeedback(ctx context.Context, subject string) error
}

// Dismisser closes the currently displayed notification.
type Dismisser interface {
	Dismiss()
}

// ShareFunc adapts a function to ShareCapability.
type ShareFunc func(ctx context.Context, content ShareContent) error

func (f ShareFunc) Share(ctx context.Context, content ShareContent) error { return f(ctx, content) }

// StatusTrackerFunc adapts a function to StatusTracker.
type StatusTrackerFunc func(ctx context.Context, trackingToken string) error

func (f StatusTrackerFunc) TrackStatus(ctx context.Context, trackingToken string) error {
	return f(ctx, trackingToken)
}

// MailFunc adapts a function to MailCapability.
type MailFunc func(ctx context.Context, subject string) error

func (f MailFunc) ComposeFeedback(ctx context.Context, subject string) error { return f(ctx, subject) }

// thenDismiss runs do (when set) and dismisses afterwards regardless of its error.
func (b *Builder) thenDismiss(do func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		var err error
		if do != nil {
			err = do(ctx)
		}
		if b.dismisser != nil {
			b.dismisser.Dismiss()
		}
		return err
	}
}

func (b *Builder) shareAction(locale Locale) Action {
	var do func(ctx context.Context) error
	if b.share != nil {
		content := ShareContent{
			Title: "LovPen",
			Text:  b.printers.sprintf(locale, keyShareText),
			URL:   b.shareURL,
		}
		do = func(ctx context.Context) error { return b.share.Share(ctx, content) }
	}
	return Action{
		Key:     ActionShare,
		Label:   b.printers.sprintf(locale, keyActionShare),
		Handler: b.thenDismiss(do),
	}
}

func (b *Builder) trackStatusAction(locale Locale, token string) Action {
	var do func(ctx context.Context) error
	if b.tracker != nil {
		do = func(ctx context.Context) error { return b.tracker.TrackStatus(ctx, token) }
	}
	return Action{
		Key:     ActionTrackStatus,
		Label:   b.printers.sprintf(locale, keyActionTrackStatus),
		Handler: b.thenDismiss(do),
	}
}

func (b *Builder) feedbackAction(locale Locale) Action {
	var do func(ctx context.Context) error
	if b.mail != nil {
		subject := b.printers.sprintf(locale, keyFeedbackSubject)
		do = func(ctx context.Context) error { return b.mail.ComposeFeedback(ctx, subject) }
	}
	return Action{
		Key:     ActionFeedback,
		Label:   b.printers.sprintf(locale, keyActionFeedback),
		Handler: b.thenDismiss(do),
	}
}
