package interp

import (
	"math/rand"
	"time"

	"go-monokit/pattern"
)

// Context owns all interpreter state. It is not safe for concurrent use:
// exactly one goroutine executes scripts against it.
type Context struct {
	Vars     *Variables
	Patterns *pattern.Storage
	Scripts  *Scripts
	Seq      *SeqState
	Rand     *rand.Rand

	counters [NumSlots][LinesPerScript]uint32
}

// NewContext returns a fresh context seeded from the clock.
func NewContext() *Context {
	return NewContextWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewContextWithRand returns a fresh context using r for RND, RRND, EITH
// and random SEQ groups.
func NewContextWithRand(r *rand.Rand) *Context {
	return &Context{
		Vars:     NewVariables(),
		Patterns: pattern.NewStorage(),
		Scripts:  &Scripts{},
		Seq:      NewSeqState(),
		Rand:     r,
	}
}

// Env is what an expression can see while evaluating.
type Env struct {
	Vars     *Variables
	Patterns *pattern.Storage
	Scripts  *Scripts
	Script   int
	Rand     *rand.Rand
}

// Env returns the evaluation environment for slot.
func (c *Context) Env(slot int) *Env {
	return &Env{
		Vars:     c.Vars,
		Patterns: c.Patterns,
		Scripts:  c.Scripts,
		Script:   slot,
		Rand:     c.Rand,
	}
}

// Counter returns the EV/SKIP counter of a line.
func (c *Context) Counter(slot, line int) uint32 {
	if slot < 0 || slot >= NumSlots || line < 0 || line >= LinesPerScript {
		return 0
	}
	return c.counters[slot][line]
}

func (c *Context) bump(slot, line int) uint32 {
	if slot < 0 || slot >= NumSlots || line < 0 || line >= LinesPerScript {
		return 0
	}
	c.counters[slot][line]++
	return c.counters[slot][line]
}

// ResetRuntime forgets EV/SKIP counters and stateful operator positions.
// Used when a scene replaces every script.
func (c *Context) ResetRuntime() {
	c.counters = [NumSlots][LinesPerScript]uint32{}
	c.Seq.Reset()
}

// Preview renders a script line with every stateful operator replaced by
// its current value. State is not advanced.
func (c *Context) Preview(slot, line int) string {
	return c.Seq.Preview(NormalizeLine(c.Scripts.Line(slot, line)), slot, line)
}
