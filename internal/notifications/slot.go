package notifications

import (
	"sync"
	"time"
)

// Phase is the display state of the notification slot.
type Phase string

const (
	PhaseHidden   Phase = "hidden"
	PhaseEntering Phase = "entering"
	PhaseVisible  Phase = "visible"
	PhaseExiting  Phase = "exiting"
)

// Transition delays.
const (
	EnterDelay     = 100 * time.Millisecond
	CelebrateDelay = 500 * time.Millisecond
	ExitDelay      = 300 * time.Millisecond
)

// Timer is the subset of *time.Timer the slot uses.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SlotState is a snapshot of the slot.
type SlotState struct {
	Phase       Phase
	Config      *Config
	Celebrating bool
}

// SlotOption customises a Slot.
type SlotOption func(*Slot)

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(clock Clock) SlotOption {
	return func(s *Slot) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithObserver registers a callback invoked after every transition.
func WithObserver(fn func(SlotState)) SlotOption {
	return func(s *Slot) { s.observer = fn }
}

// Slot holds at most one notification at a time. Publishing replaces the
// current notification and its timers; dismissing is idempotent.
type Slot struct {
	mu          sync.Mutex
	clock       Clock
	observer    func(SlotState)
	generation  uint64
	phase       Phase
	current     *Config
	celebrating bool
	timers      []Timer
}

// NewSlot constructs an empty, hidden slot.
func NewSlot(opts ...SlotOption) *Slot {
	s := &Slot{clock: realClock{}, phase: PhaseHidden}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// State returns a snapshot of the slot.
func (s *Slot) State() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Publish shows cfg, replacing whatever is displayed.
func (s *Slot) Publish(cfg Config) {
	s.mu.Lock()
	s.stopTimersLocked()
	s.generation++
	gen := s.generation
	s.current = &cfg
	s.phase = PhaseEntering
	s.celebrating = false

	s.scheduleLocked(EnterDelay, func() { s.enter(gen) })
	if d := cfg.Duration(); d > 0 {
		s.scheduleLocked(d, func() { s.dismiss(gen) })
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

// Dismiss hides the current notification. Calling it while hidden or already
// exiting has no effect.
func (s *Slot) Dismiss() {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	s.dismiss(gen)
}

func (s *Slot) enter(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.phase != PhaseEntering {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseVisible
	if s.current != nil && s.current.Celebratory {
		s.scheduleLocked(CelebrateDelay, func() { s.celebrate(gen) })
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

func (s *Slot) celebrate(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.phase != PhaseVisible {
		s.mu.Unlock()
		return
	}
	s.celebrating = true
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

func (s *Slot) dismiss(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.phase == PhaseHidden || s.phase == PhaseExiting {
		s.mu.Unlock()
		return
	}
	s.stopTimersLocked()
	s.phase = PhaseExiting
	s.celebrating = false
	s.scheduleLocked(ExitDelay, func() { s.hide(gen) })
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

func (s *Slot) hide(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.phase != PhaseExiting {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseHidden
	s.current = nil
	s.timers = nil
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

func (s *Slot) scheduleLocked(d time.Duration, f func()) {
	s.timers = append(s.timers, s.clock.AfterFunc(d, f))
}

func (s *Slot) stopTimersLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Slot) snapshotLocked() SlotState {
	state := SlotState{Phase: s.phase, Celebrating: s.celebrating}
	if s.current != nil {
		cfg := *s.current
		state.Config = &cfg
	}
	return state
}

func (s *Slot) notify(state SlotState) {
	if s.observer != nil {
		s.observer(state)
	}
}
