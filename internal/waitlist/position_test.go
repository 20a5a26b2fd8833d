package waitlist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQueuePosition(t *testing.T) {
	pos := NewQueuePosition(61, 61)
	require.Equal(t, QueuePosition{
		Position:           61,
		TotalSubmissions:   61,
		Tier:               TierRegular,
		EstimatedWaitWeeks: 1,
	}, pos)

	first := NewQueuePosition(0, 0)
	require.Equal(t, 1, first.Position)
	require.Equal(t, 1, first.TotalSubmissions)
	require.Equal(t, TierPriority, first.Tier)
}

func TestResolveTierPrefersExplicit(t *testing.T) {
	explicit := TierExtended
	require.Equal(t, TierExtended, ResolveTier(&explicit, 10))

	invalid := Tier("gold")
	require.Equal(t, TierPriority, ResolveTier(&invalid, 10))
	require.Equal(t, TierRegular, ResolveTier(nil, 120))
}

func TestResolveWeeksPrefersExplicit(t *testing.T) {
	weeks := 5
	require.Equal(t, 5, ResolveWeeks(&weeks, 1))

	zero := 0
	require.Equal(t, 1, ResolveWeeks(&zero, 1))
	require.Equal(t, 12, ResolveWeeks(nil, 900))
}
