// Package dispatch implements the command catalogue: every command a
// script line can run after its conditions pass.
package dispatch

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"go-monokit/debug"
	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
)

// MetroReader exposes the current metro settings.
type MetroReader interface {
	Snapshot() metro.Snapshot
}

type handler func(d *Dispatcher, c *call) (interp.Result, error)

type command struct {
	name  string
	usage string
	help  string
	run   handler
}

// Dispatcher runs resolved command text. It is driven from the single
// goroutine that executes scripts.
type Dispatcher struct {
	sink  engine.Sink
	metro MetroReader

	commands map[string]*command
	names    []string
	params   map[string]int16 // last value sent per engine parameter
}

// New returns a dispatcher sending engine messages to sink. metro may be
// nil, in which case M and M.ACT print defaults.
func New(sink engine.Sink, m MetroReader) *Dispatcher {
	if sink == nil {
		sink = engine.Discard
	}
	d := &Dispatcher{
		sink:     sink,
		metro:    m,
		commands: make(map[string]*command),
		params:   make(map[string]int16),
	}
	for _, c := range builtins() {
		d.register(c)
	}
	for _, name := range interp.RegisterNames() {
		d.register(registerCommand(name))
	}
	for _, p := range engine.Params {
		d.register(paramCommand(p))
	}
	sort.Strings(d.names)
	return d
}

func (d *Dispatcher) register(c *command) {
	d.commands[c.name] = c
	d.names = append(d.names, c.name)
}

// Names lists every command, sorted.
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.names...)
}

// Help returns the usage line and description of a command.
func (d *Dispatcher) Help(name string) (usage, help string, ok bool) {
	c, ok := d.commands[strings.ToUpper(name)]
	if !ok {
		return "", "", false
	}
	return c.usage, c.help, true
}

// Param returns the last value sent for an engine parameter.
func (d *Dispatcher) Param(name string) (int16, bool) {
	v, ok := d.params[name]
	return v, ok
}

// Dispatch implements interp.Dispatcher.
func (d *Dispatcher) Dispatch(text string, ec *interp.ExecContext) (interp.Result, error) {
	toks := interp.Tokenize(text)
	if len(toks) == 0 {
		return interp.Result{}, nil
	}

	name := toks[0]
	if cmd, ok := d.commands[name]; ok {
		res, err := cmd.run(d, &call{cmd: cmd, args: toks[1:], ec: ec})
		if err != nil {
			debug.Log("dispatch", "%s: %v", text, err)
		}
		return res, err
	}

	// a bare expression prints its value
	v, err := interp.EvalAll(toks, ec.Env)
	if err == nil {
		return printed(v), nil
	}
	if errors.Is(err, interp.ErrUnresolved) && !interp.IsExpressionWord(name) {
		return interp.Result{}, unknownCommand(name, d.suggest(name))
	}
	return interp.Result{}, err
}

// suggest returns the closest command name, or "".
func (d *Dispatcher) suggest(name string) string {
	ranks := fuzzy.RankFindFold(name, d.names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func printed(v int16) interp.Result {
	return interp.Result{Messages: []string{strconv.Itoa(int(v))}}
}

func message(s string) interp.Result {
	return interp.Result{Messages: []string{s}}
}
