package dispatch

import (
	"fmt"
	"strings"

	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/pattern"
)

func builtins() []*command {
	return []*command{
		{name: "PRINT", usage: "PRINT x", help: "print a value or quoted text", run: printCmd},
		{name: "PR", usage: "PR x", help: "short for PRINT", run: printCmd},
		{name: "HELP", usage: "HELP [cmd]", help: "list commands or describe one", run: helpCmd},

		{name: "SCRIPT", usage: "SCRIPT n", help: "run script 1-8, M or I", run: scriptCmd},
		{name: "$", usage: "$ n", help: "short for SCRIPT", run: scriptCmd},

		{name: "M", usage: "M [ms]", help: "get or set the metro interval", run: metroIntervalCmd},
		{name: "M.ACT", usage: "M.ACT [0|1]", help: "get or set whether the metro runs", run: metroActiveCmd},
		{name: "M.SCRIPT", usage: "M.SCRIPT [n]", help: "get or set the script the metro fires", run: metroScriptCmd},
		{name: "M.RESET", usage: "M.RESET", help: "restart the metro phase now", run: metroResetCmd},

		{name: "TR", usage: "TR", help: "trigger the voice", run: triggerCmd},

		{name: "P", usage: "P i [v]", help: "get or set a value in the working pattern", run: patternValueCmd},
		{name: "P.N", usage: "P.N [n]", help: "get or select the working pattern", run: patternWorkingCmd},
		{name: "P.L", usage: "P.L [n]", help: "get or set the working pattern length", run: patternFieldCmd},
		{name: "P.I", usage: "P.I [i]", help: "get or move the working pattern playhead", run: patternFieldCmd},
		{name: "P.HERE", usage: "P.HERE [v]", help: "get or set the value under the playhead", run: patternFieldCmd},
		{name: "PN", usage: "PN p i [v]", help: "get or set a value in pattern p", run: patternValueCmd},
		{name: "PN.L", usage: "PN.L p [n]", help: "get or set the length of pattern p", run: patternFieldCmd},
		{name: "PN.I", usage: "PN.I p [i]", help: "get or move the playhead of pattern p", run: patternFieldCmd},
		{name: "PN.HERE", usage: "PN.HERE p [v]", help: "get or set the value under the playhead of pattern p", run: patternFieldCmd},
	}
}

func printCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if len(c.args) == 1 {
		if s, ok := unquoteText(c.args[0]); ok {
			return message(s), nil
		}
	}
	v, err := c.value()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	return printed(v), nil
}

func unquoteText(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func helpCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if !c.more() {
		return message(strings.Join(d.names, " ")), nil
	}
	name := c.args[0]
	u, h, ok := d.Help(name)
	if !ok {
		return interp.Result{}, unknownCommand(name, d.suggest(name))
	}
	return message(u + ": " + strings.ToUpper(h)), nil
}

func scriptCmd(d *Dispatcher, c *call) (interp.Result, error) {
	slot, err := c.slot()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	return interp.Result{Scripts: []int{slot}}, nil
}

func (d *Dispatcher) metroSnapshot() metro.Snapshot {
	if d.metro == nil {
		return metro.Snapshot{IntervalMS: metro.DefaultInterval, Script: interp.MetroSlot}
	}
	return d.metro.Snapshot()
}

func metroIntervalCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if !c.more() {
		return printed(int16(d.metroSnapshot().IntervalMS)), nil
	}
	v, err := c.value()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	return interp.Result{Metro: interp.MetroEffect{Interval: metro.ClampInterval(int(v))}}, nil
}

func metroActiveCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if !c.more() {
		if d.metroSnapshot().Active {
			return printed(1), nil
		}
		return printed(0), nil
	}
	v, err := c.value()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	on := v != 0
	return interp.Result{Metro: interp.MetroEffect{Active: &on}}, nil
}

func metroScriptCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if !c.more() {
		return message(interp.SlotName(d.metroSnapshot().Script)), nil
	}
	slot, err := c.slot()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	if !metro.ValidScript(slot) {
		return interp.Result{}, invalid("metro target "+interp.SlotName(slot), "METRO CAN ONLY FIRE 1-8 OR M")
	}
	return interp.Result{Metro: interp.MetroEffect{Script: &slot}}, nil
}

func metroResetCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	return interp.Result{Metro: interp.MetroEffect{Reset: true}}, nil
}

func triggerCmd(d *Dispatcher, c *call) (interp.Result, error) {
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	return interp.Result{}, d.sink.Send(engine.Trigger())
}

// registerCommand reads or assigns one register.
func registerCommand(name string) *command {
	return &command{
		name:  name,
		usage: name + " [x]",
		help:  "get or set register " + name,
		run: func(d *Dispatcher, c *call) (interp.Result, error) {
			vars := c.env().Vars
			if !c.more() {
				v, _ := vars.Get(name, c.ec.Slot)
				return printed(v), nil
			}
			v, err := c.value()
			if err != nil {
				return interp.Result{}, err
			}
			if c.more() {
				return interp.Result{}, usage(c.cmd)
			}
			vars.Set(name, c.ec.Slot, v)
			return interp.Result{}, nil
		},
	}
}

// paramCommand sends one engine parameter after a range check.
func paramCommand(p engine.Param) *command {
	return &command{
		name:  p.Name,
		usage: fmt.Sprintf("%s [%d-%d]", p.Name, p.Min, p.Max),
		help:  p.Desc,
		run: func(d *Dispatcher, c *call) (interp.Result, error) {
			if !c.more() {
				v, ok := d.params[p.Name]
				if !ok {
					return message("UNSET"), nil
				}
				return printed(v), nil
			}
			v, err := c.value()
			if err != nil {
				return interp.Result{}, err
			}
			if c.more() {
				return interp.Result{}, usage(c.cmd)
			}
			if err := p.Check(v); err != nil {
				return interp.Result{}, err
			}
			if err := d.sink.Send(engine.Set(p.Name, v)); err != nil {
				return interp.Result{}, err
			}
			d.params[p.Name] = v
			return interp.Result{}, nil
		},
	}
}

// target returns the pattern a P or PN command addresses, consuming the
// pattern number for the PN family.
func target(c *call) (*pattern.Pattern, error) {
	ps := c.env().Patterns
	if !strings.HasPrefix(c.cmd.name, "PN") {
		return ps.Current(), nil
	}
	n, err := c.value()
	if err != nil {
		return nil, err
	}
	return ps.Get(int(n))
}

// patternValueCmd handles "P i [v]" and "PN p i [v]".
func patternValueCmd(d *Dispatcher, c *call) (interp.Result, error) {
	p, err := target(c)
	if err != nil {
		return interp.Result{}, err
	}
	vals, err := c.values()
	if err != nil {
		return interp.Result{}, err
	}
	switch len(vals) {
	case 1:
		return printed(p.Get(int(vals[0]))), nil
	case 2:
		p.Set(int(vals[0]), vals[1])
		return interp.Result{}, nil
	}
	return interp.Result{}, usage(c.cmd)
}

// patternFieldCmd handles the length, index and playhead commands of both
// families.
func patternFieldCmd(d *Dispatcher, c *call) (interp.Result, error) {
	p, err := target(c)
	if err != nil {
		return interp.Result{}, err
	}
	field := c.cmd.name[strings.IndexByte(c.cmd.name, '.')+1:]

	if !c.more() {
		switch field {
		case "L":
			return printed(int16(p.Length)), nil
		case "I":
			return printed(int16(p.Index)), nil
		default:
			return printed(p.Here()), nil
		}
	}

	v, err := c.value()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	switch field {
	case "L":
		p.SetLength(int(v))
	case "I":
		p.SetIndex(int(v))
	default:
		p.SetHere(v)
	}
	return interp.Result{}, nil
}

func patternWorkingCmd(d *Dispatcher, c *call) (interp.Result, error) {
	ps := c.env().Patterns
	if !c.more() {
		return printed(int16(ps.Working)), nil
	}
	v, err := c.value()
	if err != nil {
		return interp.Result{}, err
	}
	if c.more() {
		return interp.Result{}, usage(c.cmd)
	}
	return interp.Result{}, ps.SetWorking(int(v))
}
