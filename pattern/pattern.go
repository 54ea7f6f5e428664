package pattern

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	// Count is the number of pattern buffers.
	Count = 6
	// MaxLength is the number of slots in every pattern.
	MaxLength = 64
	// DefaultLength is the playable length of a fresh pattern.
	DefaultLength = 16
)

// Pattern is a circular buffer of values with a playhead.
// Index is always inside [0, Length).
type Pattern struct {
	Data   [MaxLength]int16 `json:"data"`
	Length int              `json:"length"`
	Index  int              `json:"index"`
}

// New returns a zeroed pattern with the default length.
func New() Pattern {
	return Pattern{Length: DefaultLength}
}

// Slot maps a user index onto a data slot. Negative indices count back
// from the end of the playable length; everything is clamped to the buffer.
func (p *Pattern) Slot(i int) int {
	if i < 0 {
		i += p.Length
	}
	return clamp(i, 0, MaxLength-1)
}

// Get returns the value at index i.
func (p *Pattern) Get(i int) int16 {
	return p.Data[p.Slot(i)]
}

// Set stores v at index i.
func (p *Pattern) Set(i int, v int16) {
	p.Data[p.Slot(i)] = v
}

// SetLength clamps n to [1, MaxLength] and pulls the playhead back inside.
func (p *Pattern) SetLength(n int) {
	p.Length = clamp(n, 1, MaxLength)
	if p.Index >= p.Length {
		p.Index = p.Length - 1
	}
}

// SetIndex moves the playhead, clamped to the playable length.
func (p *Pattern) SetIndex(i int) {
	if i < 0 {
		i += p.Length
	}
	p.Index = clamp(i, 0, p.Length-1)
}

// Here returns the value under the playhead.
func (p *Pattern) Here() int16 {
	return p.Data[p.Index]
}

// SetHere stores v under the playhead.
func (p *Pattern) SetHere(v int16) {
	p.Data[p.Index] = v
}

// Next advances the playhead (wrapping) and returns the new value.
func (p *Pattern) Next() int16 {
	p.normalize()
	p.Index = (p.Index + 1) % p.Length
	return p.Data[p.Index]
}

// Prev moves the playhead back (wrapping) and returns the new value.
func (p *Pattern) Prev() int16 {
	p.normalize()
	p.Index = (p.Index - 1 + p.Length) % p.Length
	return p.Data[p.Index]
}

// normalize repairs a pattern decoded from an older or hand-edited scene.
func (p *Pattern) normalize() {
	if p.Length < 1 || p.Length > MaxLength {
		p.Length = clamp(p.Length, 1, MaxLength)
	}
	if p.Index < 0 || p.Index >= p.Length {
		p.Index = 0
	}
}

// Storage holds every pattern plus the working pattern pointer.
type Storage struct {
	Patterns [Count]Pattern `json:"patterns"`
	Working  int            `json:"working"`
}

// NewStorage returns storage with Count fresh patterns and pattern 0 working.
func NewStorage() *Storage {
	s := &Storage{}
	for i := range s.Patterns {
		s.Patterns[i] = New()
	}
	return s
}

// Valid reports whether n names a pattern.
func Valid(n int) bool {
	return n >= 0 && n < Count
}

// ErrRange is returned when a pattern number is out of range.
var ErrRange = fault.New("pattern number out of range")

// Get returns pattern n.
func (s *Storage) Get(n int) (*Pattern, error) {
	if !Valid(n) {
		return nil, fault.Wrap(ErrRange,
			fmsg.WithDesc(fmt.Sprintf("pattern %d", n), fmt.Sprintf("PATTERN %d OUT OF RANGE (0-%d)", n, Count-1)),
			ftag.With(ftag.InvalidArgument),
		)
	}
	return &s.Patterns[n], nil
}

// Current returns the working pattern.
func (s *Storage) Current() *Pattern {
	if !Valid(s.Working) {
		s.Working = 0
	}
	return &s.Patterns[s.Working]
}

// SetWorking selects the working pattern.
func (s *Storage) SetWorking(n int) error {
	if _, err := s.Get(n); err != nil {
		return err
	}
	s.Working = n
	return nil
}

// Normalize repairs every pattern after a scene load.
func (s *Storage) Normalize() {
	for i := range s.Patterns {
		s.Patterns[i].normalize()
	}
	if !Valid(s.Working) {
		s.Working = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
