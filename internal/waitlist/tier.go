// Package waitlist holds the pure queue arithmetic shared by the submission
// service and the notification builder.
package waitlist

// Tier classifies a queue position.
type Tier string

const (
	TierPriority Tier = "priority"
	TierRegular  Tier = "regular"
	TierExtended Tier = "extended"
)

const (
	// PriorityCutoff is the last position that belongs to the priority tier.
	PriorityCutoff = 50
	// RegularCutoff is the last position that belongs to the regular tier.
	RegularCutoff = 500

	MinWaitWeeks = 1
	MaxWaitWeeks = 12
)

// Tiers lists all tiers from earliest to latest.
var Tiers = []Tier{TierPriority, TierRegular, TierExtended}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierPriority, TierRegular, TierExtended:
		return true
	}
	return false
}

// TierOf maps a position to its tier. Positions below 1 are treated as 1.
func TierOf(position int) Tier {
	position = normalisePosition(position)
	switch {
	case position <= PriorityCutoff:
		return TierPriority
	case position <= RegularCutoff:
		return TierRegular
	default:
		return TierExtended
	}
}

// multiplierTenths is the per-tier wait multiplier in tenths (0.5, 0.8, 1.2)
// so the estimate stays in integer arithmetic.
func multiplierTenths(t Tier) int {
	switch t {
	case TierPriority:
		return 5
	case TierRegular:
		return 8
	default:
		return 12
	}
}

// EstimatedWeeks returns ceil(position/100 * 2 * multiplier) clamped to
// [MinWaitWeeks, MaxWaitWeeks].
func EstimatedWeeks(position int) int {
	position = normalisePosition(position)

	// position/100 * 2 * tenths/10 == position*2*tenths / 1000
	numerator := position * 2 * multiplierTenths(TierOf(position))
	weeks := (numerator + 999) / 1000

	if weeks < MinWaitWeeks {
		return MinWaitWeeks
	}
	if weeks > MaxWaitWeeks {
		return MaxWaitWeeks
	}
	return weeks
}

func normalisePosition(position int) int {
	if position < 1 {
		return 1
	}
	return position
}
