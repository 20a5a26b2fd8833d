package notifications

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now + d, seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires due timers in order, including timers
// scheduled by callbacks that fall inside the window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at == due[j].at {
				return due[i].seq < due[j].seq
			}
			return due[i].at < due[j].at
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

func TestSlotLifecycle(t *testing.T) {
	clock := &fakeClock{}
	var phases []Phase
	slot := NewSlot(WithClock(clock), WithObserver(func(s SlotState) { phases = append(phases, s.Phase) }))

	require.Equal(t, PhaseHidden, slot.State().Phase)

	slot.Publish(Config{Title: "hi", DurationMS: 8000})
	require.Equal(t, PhaseEntering, slot.State().Phase)

	clock.Advance(EnterDelay)
	require.Equal(t, PhaseVisible, slot.State().Phase)
	require.False(t, slot.State().Celebrating)

	clock.Advance(8000*time.Millisecond - EnterDelay)
	require.Equal(t, PhaseExiting, slot.State().Phase)

	clock.Advance(ExitDelay)
	state := slot.State()
	require.Equal(t, PhaseHidden, state.Phase)
	require.Nil(t, state.Config)

	require.Equal(t, []Phase{PhaseEntering, PhaseVisible, PhaseExiting, PhaseHidden}, phases)
}

func TestSlotCelebratesAfterDelay(t *testing.T) {
	clock := &fakeClock{}
	slot := NewSlot(WithClock(clock))

	slot.Publish(Config{Celebratory: true, DurationMS: 12000})
	clock.Advance(EnterDelay)
	require.False(t, slot.State().Celebrating)

	clock.Advance(CelebrateDelay)
	state := slot.State()
	require.Equal(t, PhaseVisible, state.Phase)
	require.True(t, state.Celebrating)
}

func TestSlotDismissIsIdempotent(t *testing.T) {
	clock := &fakeClock{}
	transitions := 0
	slot := NewSlot(WithClock(clock), WithObserver(func(SlotState) { transitions++ }))

	slot.Dismiss()
	require.Equal(t, PhaseHidden, slot.State().Phase)
	require.Zero(t, transitions)

	slot.Publish(Config{DurationMS: 0})
	clock.Advance(EnterDelay)

	slot.Dismiss()
	slot.Dismiss()
	require.Equal(t, PhaseExiting, slot.State().Phase)

	clock.Advance(ExitDelay)
	slot.Dismiss()
	require.Equal(t, PhaseHidden, slot.State().Phase)

	// entering, visible, exiting, hidden
	require.Equal(t, 4, transitions)
}

func TestSlotStickyNotificationStaysVisible(t *testing.T) {
	clock := &fakeClock{}
	slot := NewSlot(WithClock(clock))

	slot.Publish(Config{DurationMS: 0})
	clock.Advance(time.Hour)
	require.Equal(t, PhaseVisible, slot.State().Phase)
}

func TestSlotPublishReplacesCurrent(t *testing.T) {
	clock := &fakeClock{}
	slot := NewSlot(WithClock(clock))

	slot.Publish(Config{Title: "first", DurationMS: 1000})
	clock.Advance(900 * time.Millisecond)

	slot.Publish(Config{Title: "second", DurationMS: 1000})
	require.Equal(t, "second", slot.State().Config.Title)

	// The first notification's auto-dismiss would have fired here.
	clock.Advance(200 * time.Millisecond)
	state := slot.State()
	require.Equal(t, PhaseVisible, state.Phase)
	require.Equal(t, "second", state.Config.Title)

	clock.Advance(800 * time.Millisecond)
	require.Equal(t, PhaseExiting, slot.State().Phase)
}

func TestSlotPublishDuringExit(t *testing.T) {
	clock := &fakeClock{}
	slot := NewSlot(WithClock(clock))

	slot.Publish(Config{Title: "first"})
	clock.Advance(EnterDelay)
	slot.Dismiss()

	slot.Publish(Config{Title: "second"})
	clock.Advance(ExitDelay)

	state := slot.State()
	require.Equal(t, PhaseVisible, state.Phase)
	require.Equal(t, "second", state.Config.Title)
}

func TestClientState(t *testing.T) {
	clock := &fakeClock{}
	state := NewClientState(NewSlot(WithClock(clock)))

	require.False(t, state.HasApplied())
	require.Nil(t, state.Notification())

	state.MarkApplied(" a@x.com ")
	state.Show(Config{Title: "joined", DurationMS: 6000})
	require.True(t, state.HasApplied())
	require.Equal(t, "a@x.com", state.SelectedEmail())
	require.Equal(t, "joined", state.Notification().Title)

	state.Reset()
	require.False(t, state.HasApplied())
	require.Empty(t, state.SelectedEmail())
	require.Equal(t, PhaseExiting, state.Slot().State().Phase)

	clock.Advance(ExitDelay)
	require.Nil(t, state.Notification())
}

func TestBuilderDismisserDrivesSlot(t *testing.T) {
	clock := &fakeClock{}
	slot := NewSlot(WithClock(clock))
	b := mustBuilder(t, WithDismisser(slot))

	cfg := b.Build(Outcome{Position: intPtr(5)}, "en")
	slot.Publish(cfg)
	clock.Advance(EnterDelay)

	require.NoError(t, cfg.Actions[0].Handler(context.Background()))
	require.Equal(t, PhaseExiting, slot.State().Phase)
}
