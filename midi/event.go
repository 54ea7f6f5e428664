package midi

import "go-monokit/interp"

// ActionKind is what a controller press asks for
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionScript
	ActionMetroToggle
)

// Action is a controller press translated to the interpreter's terms
type Action struct {
	Kind ActionKind
	Slot int // script slot for ActionScript
}

// Grid layout on a Launchpad:
//
//	row 0 (bottom)  pads 0-7 run scripts 1-8
//	row 1           col 0 runs the metro script, col 1 the init script
//	side column     bottom scene button toggles the metro
const (
	ScriptRow = 0
	SystemRow = 1
	SideCol   = 8
)

// PadAction maps a grid press to an action.
func PadAction(ev PadEvent) Action {
	switch {
	case ev.Row == ScriptRow && ev.Col >= 0 && ev.Col < interp.UserScripts:
		return Action{Kind: ActionScript, Slot: ev.Col}
	case ev.Row == SystemRow && ev.Col == 0:
		return Action{Kind: ActionScript, Slot: interp.MetroSlot}
	case ev.Row == SystemRow && ev.Col == 1:
		return Action{Kind: ActionScript, Slot: interp.InitSlot}
	case ev.Row == ScriptRow && ev.Col == SideCol:
		return Action{Kind: ActionMetroToggle}
	}
	return Action{}
}

// NoteAction maps a key press to a script: baseNote runs script 1, the
// next seven semitones run scripts 2-8.
func NoteAction(ev NoteEvent, baseNote uint8) Action {
	if ev.Velocity == 0 || ev.Note < baseNote || int(ev.Note) >= int(baseNote)+interp.UserScripts {
		return Action{}
	}
	return Action{Kind: ActionScript, Slot: int(ev.Note - baseNote)}
}
