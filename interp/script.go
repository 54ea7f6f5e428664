package interp

import (
	"fmt"
	"strconv"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Script slot layout
const (
	LinesPerScript = 8
	UserScripts    = 8  // slots 0-7, shown as 1-8
	MetroSlot      = 8  // "M", fired by the metro
	InitSlot       = 9  // "I", run at startup and on scene load
	NumScripts     = 10 // editable slots
	LiveSlot       = 10 // pseudo-slot for immediate commands
	NumSlots       = 11
)

// Script is one editable program slot.
type Script struct {
	Lines [LinesPerScript]string `json:"lines"`
}

// Scripts holds every editable slot.
type Scripts [NumScripts]Script

// ValidScript reports whether slot names an editable script.
func ValidScript(slot int) bool {
	return slot >= 0 && slot < NumScripts
}

// SlotName returns the user-facing name of a slot.
func SlotName(slot int) string {
	switch {
	case slot >= 0 && slot < UserScripts:
		return strconv.Itoa(slot + 1)
	case slot == MetroSlot:
		return "M"
	case slot == InitSlot:
		return "I"
	case slot == LiveSlot:
		return "LIVE"
	}
	return "?"
}

// ParseSlot converts "1".."8", "M" or "I" to a slot index.
func ParseSlot(s string) (int, bool) {
	switch s {
	case "M":
		return MetroSlot, true
	case "I":
		return InitSlot, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > UserScripts {
		return 0, false
	}
	return n - 1, true
}

// Line returns one line of a script, or "" when out of range.
func (s *Scripts) Line(slot, line int) string {
	if !ValidScript(slot) || line < 0 || line >= LinesPerScript {
		return ""
	}
	return s[slot].Lines[line]
}

// SetLine replaces one line of a script.
func (s *Scripts) SetLine(slot, line int, text string) error {
	if !ValidScript(slot) {
		return fault.New("bad script slot",
			fmsg.WithDesc(fmt.Sprintf("slot %d", slot), "NO SUCH SCRIPT"),
			ftag.With(ftag.InvalidArgument))
	}
	if line < 0 || line >= LinesPerScript {
		return fault.New("bad script line",
			fmsg.WithDesc(fmt.Sprintf("line %d", line), fmt.Sprintf("LINE MUST BE 1-%d", LinesPerScript)),
			ftag.With(ftag.InvalidArgument))
	}
	s[slot].Lines[line] = text
	return nil
}

// Clear empties a script.
func (s *Scripts) Clear(slot int) {
	if ValidScript(slot) {
		s[slot] = Script{}
	}
}
