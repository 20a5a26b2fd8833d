package waitlist

// QueuePosition is derived at read time from the pending population and is
// never persisted. It goes stale as entries ahead of it are added or reviewed.
type QueuePosition struct {
	Position           int  `json:"position"`
	TotalSubmissions   int  `json:"total_submissions"`
	Tier               Tier `json:"tier"`
	EstimatedWaitWeeks int  `json:"estimated_wait_weeks"`
}

// NewQueuePosition derives tier and wait estimate for the given position.
func NewQueuePosition(position, total int) QueuePosition {
	position = normalisePosition(position)
	if total < position {
		total = position
	}
	return QueuePosition{
		Position:           position,
		TotalSubmissions:   total,
		Tier:               TierOf(position),
		EstimatedWaitWeeks: EstimatedWeeks(position),
	}
}

// ResolveTier returns explicit when it is set to a known tier, otherwise the
// tier derived from position. An explicit tier always wins, so an upstream
// value that disagrees with the position is surfaced rather than recomputed.
func ResolveTier(explicit *Tier, position int) Tier {
	if explicit != nil && explicit.Valid() {
		return *explicit
	}
	return TierOf(position)
}

// ResolveWeeks returns explicit when it is set and positive, otherwise the
// estimate derived from position.
func ResolveWeeks(explicit *int, position int) int {
	if explicit != nil && *explicit > 0 {
		return *explicit
	}
	return EstimatedWeeks(position)
}
