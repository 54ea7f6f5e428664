package metro

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go-monokit/debug"
	"go-monokit/engine"
)

// spinWindow is how long before a deadline the clock stops sleeping and
// busy-waits instead.
const spinWindow = 100 * time.Microsecond

// idleSleep is the poll period while the metro is inactive.
const idleSleep = 10 * time.Millisecond

// CommandKind identifies a queued clock command.
type CommandKind uint8

const (
	CmdInterval CommandKind = iota
	CmdActive
	CmdScript
	CmdReset
	CmdForward
)

// Command is one request queued to the clock goroutine.
type Command struct {
	Kind    CommandKind
	Value   int
	Message engine.Message
}

// Stats counts what the clock has done.
type Stats struct {
	Ticks   uint64 // fire signals delivered
	Dropped uint64 // ticks dropped because the executor was still busy
	Late    uint64 // deadlines found already passed
}

// Clock fires the metro target at a drift-compensated interval. The clock
// never executes scripts itself: it signals Fire and whoever owns the
// interpreter runs the script.
type Clock struct {
	state *State
	sink  engine.Sink
	cmds  chan Command
	fire  chan int

	ticks   atomic.Uint64
	dropped atomic.Uint64
	late    atomic.Uint64
}

// NewClock returns a clock over state. Forwarded engine messages go to sink.
func NewClock(state *State, sink engine.Sink) *Clock {
	if sink == nil {
		sink = engine.Discard
	}
	return &Clock{
		state: state,
		sink:  sink,
		cmds:  make(chan Command, 256),
		fire:  make(chan int, 1),
	}
}

// State returns the shared metro state.
func (c *Clock) State() *State {
	return c.state
}

// Fire delivers the slot to execute on every tick. At most one tick is
// ever pending.
func (c *Clock) Fire() <-chan int {
	return c.fire
}

// Stats returns the tick counters.
func (c *Clock) Stats() Stats {
	return Stats{Ticks: c.ticks.Load(), Dropped: c.dropped.Load(), Late: c.late.Load()}
}

// SetInterval queues an interval change; the next tick is rebased to now.
func (c *Clock) SetInterval(ms int) {
	c.enqueue(Command{Kind: CmdInterval, Value: ms})
}

// SetScript queues a new metro target.
func (c *Clock) SetScript(slot int) {
	c.enqueue(Command{Kind: CmdScript, Value: slot})
}

// Reset queues a phase reset: the next tick fires immediately.
func (c *Clock) Reset() {
	c.enqueue(Command{Kind: CmdReset})
}

// Forward queues an engine message to be sent from the clock goroutine.
func (c *Clock) Forward(m engine.Message) {
	c.enqueue(Command{Kind: CmdForward, Message: m})
}

// SetActive queues a start or stop. Starting fires immediately.
func (c *Clock) SetActive(active bool) {
	v := 0
	if active {
		v = 1
	}
	c.enqueue(Command{Kind: CmdActive, Value: v})
}

// Send implements engine.Sink by forwarding through the clock goroutine.
func (c *Clock) Send(m engine.Message) error {
	c.Forward(m)
	return nil
}

func (c *Clock) enqueue(cmd Command) {
	select {
	case c.cmds <- cmd:
	default:
		debug.Log("metro", "command queue full, dropped kind=%d", cmd.Kind)
	}
}

// Run drives the clock until ctx is done.
func (c *Clock) Run(ctx context.Context) {
	snap := c.state.Snapshot()
	next := time.Now()

	debug.Log("metro", "clock started interval=%dms active=%v", snap.IntervalMS, snap.Active)
	defer debug.Log("metro", "clock stopped ticks=%d late=%d dropped=%d", c.ticks.Load(), c.late.Load(), c.dropped.Load())

	for {
		if ctx.Err() != nil {
			return
		}

		for drained := false; !drained; {
			select {
			case cmd := <-c.cmds:
				c.apply(cmd, &next)
			default:
				drained = true
			}
		}

		// pick up changes written to State directly
		cur := c.state.Snapshot()
		if cur.IntervalMS != snap.IntervalMS || cur.epoch != snap.epoch || (cur.Active && !snap.Active) {
			next = time.Now()
		}
		snap = cur

		if !snap.Active {
			c.wait(ctx, time.Now().Add(idleSleep), &next)
			continue
		}

		if now := time.Now(); now.Before(next) {
			c.wait(ctx, next, &next)
			continue
		}

		c.signal(snap.Script)
		next = next.Add(time.Duration(snap.IntervalMS) * time.Millisecond)
		if now := time.Now(); !next.After(now) {
			n := c.late.Add(1)
			debug.LogEvery(10, "metro", "running late by %s (late=%d)", now.Sub(next), n)
			next = now
		}
	}
}

func (c *Clock) apply(cmd Command, next *time.Time) {
	switch cmd.Kind {
	case CmdInterval:
		c.state.SetInterval(cmd.Value)
		*next = time.Now()
	case CmdActive:
		was := c.state.Snapshot().Active
		c.state.SetActive(cmd.Value != 0)
		if cmd.Value != 0 && !was {
			*next = time.Now()
		}
	case CmdScript:
		c.state.SetScript(cmd.Value)
	case CmdReset:
		*next = time.Now()
	case CmdForward:
		if err := c.sink.Send(cmd.Message); err != nil {
			debug.Log("metro", "forward %s: %v", cmd.Message, err)
		}
	}
}

func (c *Clock) signal(slot int) {
	select {
	case c.fire <- slot:
		c.ticks.Add(1)
	default:
		c.dropped.Add(1)
		debug.LogEvery(10, "metro", "executor busy, tick dropped")
	}
}

// wait sleeps until deadline: a timer for all but the last spinWindow,
// then a spin. A queued command cuts the sleep short and is applied.
func (c *Clock) wait(ctx context.Context, deadline time.Time, next *time.Time) {
	if d := time.Until(deadline) - spinWindow; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			c.apply(cmd, next)
			return
		case <-timer.C:
		}
	}
	for time.Now().Before(deadline) {
		runtime.Gosched()
	}
}
