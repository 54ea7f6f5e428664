package interp

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-monokit/debug"
)

// MaxDepth is the deepest nested script call that still runs.
const MaxDepth = 10

// MaxCalls is the most script calls one top-level run may make.
const MaxCalls = 1024

// MetroEffect reports what a command changed on the metro. Zero values
// mean "unchanged".
type MetroEffect struct {
	Interval int
	Active   *bool
	Script   *int
	Reset    bool
}

// IsZero reports whether the effect changes nothing.
func (m MetroEffect) IsZero() bool {
	return m.Interval == 0 && m.Active == nil && m.Script == nil && !m.Reset
}

// Result is what a dispatched command asks the executor to do next.
type Result struct {
	Scripts  []int
	Messages []string
	Metro    MetroEffect
}

// ExecContext describes where a command is running.
type ExecContext struct {
	Slot  int
	Depth int
	Env   *Env
}

// Dispatcher executes one resolved command.
type Dispatcher interface {
	Dispatch(cmd string, ec *ExecContext) (Result, error)
}

// MetroSink receives metro side effects.
type MetroSink interface {
	SetInterval(ms int)
	SetActive(active bool)
	SetScript(slot int)
	Reset()
}

// Executor walks script lines and hands gated commands to a Dispatcher.
type Executor struct {
	ctx        *Context
	dispatcher Dispatcher
	metro      MetroSink
	output     func(string)

	// OnScript is called each time a script starts running.
	OnScript func(slot int)

	// per top-level run
	calls  int
	halted bool
}

// NewExecutor returns an executor over ctx. metro may be nil; output
// receives every printed and error line.
func NewExecutor(ctx *Context, d Dispatcher, m MetroSink, output func(string)) *Executor {
	if output == nil {
		output = func(string) {}
	}
	return &Executor{ctx: ctx, dispatcher: d, metro: m, output: output}
}

// Context returns the interpreter state the executor runs against.
func (e *Executor) Context() *Context {
	return e.ctx
}

// Execute runs every line of a script slot. depth is 0 for a top-level call.
// A run that nests deeper than MaxDepth or makes more than MaxCalls script
// calls reports one error and stops.
func (e *Executor) Execute(slot, depth int) {
	if depth == 0 {
		e.calls, e.halted = 0, false
	}
	if e.halted {
		return
	}
	if depth > MaxDepth {
		e.halt(fault.Wrap(ErrRecursion,
			fmsg.WithDesc(fmt.Sprintf("slot %s at depth %d", SlotName(slot), depth), "SCRIPT RECURSION LIMIT EXCEEDED")))
		return
	}
	e.calls++
	if e.calls > MaxCalls {
		e.halt(fault.Wrap(ErrRecursion,
			fmsg.WithDesc(fmt.Sprintf("slot %s after %d calls", SlotName(slot), MaxCalls), "SCRIPT CALL LIMIT EXCEEDED")))
		return
	}
	if !ValidScript(slot) {
		e.fail(syntaxError(fmt.Sprintf("slot %d", slot), "NO SUCH SCRIPT"))
		return
	}
	if e.OnScript != nil {
		e.OnScript(slot)
	}

	chain := true
	for line := 0; line < LinesPerScript && !e.halted; line++ {
		e.runLine(slot, line, NormalizeLine(e.ctx.Scripts.Line(slot, line)), depth, &chain)
	}
}

// ExecuteLive runs one immediate-mode line in the live slot.
func (e *Executor) ExecuteLive(text string) {
	e.calls, e.halted = 0, false
	chain := true
	e.runLine(LiveSlot, 0, NormalizeLine(text), 0, &chain)
}

func (e *Executor) runLine(slot, line int, text string, depth int, chain *bool) {
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}
	count := e.ctx.bump(slot, line)

	switch word := leadingWord(text); word {
	case "EV", "SKIP":
		head, body, idx, found := cutOutside(text, ':')
		if !found {
			e.fail(syntaxError("modifier without body", word+" NEEDS ':'"))
			return
		}
		args, err := e.modifierArgs(slot, line, head)
		if err != nil {
			e.fail(err)
			return
		}
		divisor, err := EvalAll(args, e.ctx.Env(slot))
		if err != nil {
			e.fail(err)
			return
		}
		run := divisor <= 0
		if !run {
			hit := count%uint32(divisor) == 0
			run = hit == (word == "EV")
		}
		if run {
			e.runBody(slot, line, body, idx+1, depth, chain)
		}

	case "L":
		head, body, idx, found := cutOutside(text, ':')
		if !found {
			e.fail(syntaxError("loop without body", "L NEEDS ':'"))
			return
		}
		args, err := e.modifierArgs(slot, line, head)
		if err != nil {
			e.fail(err)
			return
		}
		e.loop(slot, line, args, body, idx+1, depth)

	default:
		e.runBody(slot, line, text, 0, depth, chain)
	}
}

// modifierArgs resolves the head of a modifier line and drops its keyword.
func (e *Executor) modifierArgs(slot, line int, head string) ([]string, error) {
	resolved, err := e.ctx.Seq.Resolve(head, Site{Script: slot, Line: line}, e.ctx.Rand)
	if err != nil {
		return nil, err
	}
	toks := Tokenize(resolved)
	return toks[1:], nil
}

// loop binds I from start to end inclusive, in either direction. Each
// pass starts a fresh IF chain.
func (e *Executor) loop(slot, line int, args []string, body string, off, depth int) {
	env := e.ctx.Env(slot)
	start, n1, err := Eval(args, 0, env)
	if err != nil {
		e.fail(err)
		return
	}
	end, n2, err := Eval(args, n1, env)
	if err != nil {
		e.fail(err)
		return
	}
	if n1+n2 != len(args) {
		e.fail(syntaxError("loop bounds", "L TAKES TWO VALUES"))
		return
	}

	saved, _ := env.Vars.Get("I", slot)
	defer env.Vars.Set("I", slot, saved)

	step := 1
	if start > end {
		step = -1
	}
	for i := int(start); ; i += step {
		env.Vars.Set("I", slot, int16(i))
		chain := true
		e.runBody(slot, line, body, off, depth, &chain)
		if i == int(end) || e.halted {
			break
		}
	}
}

func (e *Executor) runBody(slot, line int, body string, off, depth int, chain *bool) {
	for _, seg := range splitOutside(body, ';', off) {
		if e.halted {
			return
		}
		sub, subOff := trimSegment(seg.Text, seg.Offset)
		if sub == "" {
			continue
		}
		e.runSub(slot, line, sub, subOff, depth, chain)
	}
}

// runSub gates one sub-command on its optional condition and dispatches it.
func (e *Executor) runSub(slot, line int, sub string, off, depth int, chain *bool) {
	cond, cmd, idx, hasCond := cutOutside(sub, ':')
	if !hasCond {
		e.dispatch(slot, line, sub, off, depth)
		return
	}

	cond, condOff := trimSegment(cond, off)
	cmd, cmdOff := trimSegment(cmd, off+idx+1)

	switch leadingWord(cond) {
	case "IF":
		ok, err := e.condition(slot, line, cond, condOff)
		if err != nil {
			e.fail(err)
		}
		*chain = ok
		if !ok {
			return
		}
	case "ELIF":
		if *chain {
			return
		}
		ok, err := e.condition(slot, line, cond, condOff)
		if err != nil {
			e.fail(err)
		}
		*chain = ok
		if !ok {
			return
		}
	case "ELSE":
		if *chain {
			return
		}
		*chain = true
	default:
		ok, err := e.condition(slot, line, cond, condOff)
		if err != nil {
			e.fail(err)
		}
		if !ok {
			return
		}
	}

	if cmd == "" {
		return
	}
	e.dispatch(slot, line, cmd, cmdOff, depth)
}

// condition resolves stateful operators in a condition clause and
// evaluates it. IF and ELIF keywords are stripped.
func (e *Executor) condition(slot, line int, text string, off int) (bool, error) {
	resolved, err := e.ctx.Seq.Resolve(text, Site{Script: slot, Line: line, Offset: off}, e.ctx.Rand)
	if err != nil {
		return false, err
	}
	if w := leadingWord(resolved); w == "ELIF" {
		resolved = strings.TrimSpace(resolved[len(w):])
	}
	return evalCondition(resolved, e.ctx.Env(slot))
}

func (e *Executor) dispatch(slot, line int, text string, off, depth int) {
	resolved, err := e.ctx.Seq.Resolve(text, Site{Script: slot, Line: line, Offset: off}, e.ctx.Rand)
	if err != nil {
		e.fail(err)
		return
	}

	ec := &ExecContext{Slot: slot, Depth: depth, Env: e.ctx.Env(slot)}
	res, err := e.dispatcher.Dispatch(resolved, ec)
	if err != nil {
		debug.Log("interp", "%s:%d %q: %v", SlotName(slot), line+1, resolved, err)
		e.output(FormatError(err))
		return
	}

	for _, msg := range res.Messages {
		e.output(msg)
	}
	e.applyMetro(res.Metro)
	for _, s := range res.Scripts {
		e.Execute(s, depth+1)
	}
}

func (e *Executor) applyMetro(m MetroEffect) {
	if e.metro == nil || m.IsZero() {
		return
	}
	if m.Interval > 0 {
		e.metro.SetInterval(m.Interval)
	}
	if m.Active != nil {
		e.metro.SetActive(*m.Active)
	}
	if m.Script != nil {
		e.metro.SetScript(*m.Script)
	}
	if m.Reset {
		e.metro.Reset()
	}
}

// halt reports err and stops the rest of the current top-level run.
func (e *Executor) halt(err error) {
	e.halted = true
	e.fail(err)
}

func (e *Executor) fail(err error) {
	debug.Log("interp", "%v", err)
	e.output(FormatError(err))
}
