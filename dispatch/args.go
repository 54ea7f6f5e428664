package dispatch

import (
	"errors"
	"strconv"
	"strings"

	"go-monokit/interp"
)

// call is one command invocation with a cursor over its argument tokens.
type call struct {
	cmd  *command
	args []string
	pos  int
	ec   *interp.ExecContext
}

func (c *call) env() *interp.Env {
	return c.ec.Env
}

// more reports whether unread argument tokens remain.
func (c *call) more() bool {
	return c.pos < len(c.args)
}

// value reads the next argument: an expression, or failing that a note
// name such as C3 or F#4.
func (c *call) value() (int16, error) {
	if !c.more() {
		return 0, usage(c.cmd)
	}
	v, n, err := interp.Eval(c.args, c.pos, c.env())
	if err == nil {
		c.pos += n
		return v, nil
	}
	if errors.Is(err, interp.ErrUnresolved) {
		if note, ok := ParseNote(c.args[c.pos]); ok {
			c.pos++
			return note, nil
		}
	}
	return 0, err
}

// values reads every remaining argument.
func (c *call) values() ([]int16, error) {
	var out []int16
	for c.more() {
		v, err := c.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// slot reads a script slot: 1-8, M, I, or an expression giving 1-8.
func (c *call) slot() (int, error) {
	if !c.more() {
		return 0, usage(c.cmd)
	}
	if s, ok := interp.ParseSlot(c.args[c.pos]); ok {
		c.pos++
		return s, nil
	}
	v, err := c.value()
	if err != nil {
		return 0, err
	}
	s, ok := interp.ParseSlot(strconv.Itoa(int(v)))
	if !ok {
		return 0, invalid("slot "+strconv.Itoa(int(v)), "NO SUCH SCRIPT: "+strconv.Itoa(int(v)))
	}
	return s, nil
}

var noteOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote reads a note name with octave (C4 = 60, C3 = 48). Sharps use
// '#', flats a trailing 'B' (BB3 is B flat 3).
func ParseNote(s string) (int16, bool) {
	s = strings.ToUpper(s)
	if len(s) < 2 {
		return 0, false
	}
	base, ok := noteOffsets[s[0]]
	if !ok {
		return 0, false
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'B':
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil || octave < -1 || octave > 9 {
		return 0, false
	}
	n := (octave+1)*12 + base
	if n < 0 || n > 127 {
		return 0, false
	}
	return int16(n), true
}
