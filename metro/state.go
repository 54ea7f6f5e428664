// Package metro runs the recurring clock that fires the metro script.
package metro

import (
	"sync"

	"go-monokit/interp"
)

// Interval bounds in milliseconds.
const (
	MinInterval     = 10
	MaxInterval     = 60000
	DefaultInterval = 500
)

// Snapshot is a copy of the metro settings at one instant.
type Snapshot struct {
	IntervalMS int
	Active     bool
	Script     int
	epoch      uint64
}

// State is the metro configuration shared between the clock goroutine and
// whoever executes scripts. Every method holds the lock only long enough to
// copy a few fields.
type State struct {
	mu       sync.Mutex
	interval int
	active   bool
	script   int
	epoch    uint64 // bumped by Reset
}

// NewState returns a state targeting the metro script.
func NewState(intervalMS int, active bool) *State {
	return &State{
		interval: ClampInterval(intervalMS),
		active:   active,
		script:   interp.MetroSlot,
	}
}

// ClampInterval keeps ms inside [MinInterval, MaxInterval]. Zero or
// negative values fall back to DefaultInterval.
func ClampInterval(ms int) int {
	switch {
	case ms <= 0:
		return DefaultInterval
	case ms < MinInterval:
		return MinInterval
	case ms > MaxInterval:
		return MaxInterval
	}
	return ms
}

// ValidScript reports whether slot can be a metro target: a user script
// or the metro script itself.
func ValidScript(slot int) bool {
	return slot >= 0 && slot <= interp.MetroSlot
}

// Snapshot copies the current settings.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{IntervalMS: s.interval, Active: s.active, Script: s.script, epoch: s.epoch}
}

// SetInterval sets the period in milliseconds, clamped to the allowed range.
func (s *State) SetInterval(ms int) {
	s.mu.Lock()
	s.interval = ClampInterval(ms)
	s.mu.Unlock()
}

// SetActive starts or stops the metro.
func (s *State) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

// SetScript retargets the metro. Invalid slots are ignored.
func (s *State) SetScript(slot int) {
	if !ValidScript(slot) {
		return
	}
	s.mu.Lock()
	s.script = slot
	s.mu.Unlock()
}

// Reset asks a running clock to restart its phase on the next cycle.
func (s *State) Reset() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}
