package midi

import (
	"testing"

	"go-monokit/interp"
)

func TestPadAction(t *testing.T) {
	tests := []struct {
		ev   PadEvent
		want Action
	}{
		{PadEvent{Row: 0, Col: 0, Velocity: 100}, Action{Kind: ActionScript, Slot: 0}},
		{PadEvent{Row: 0, Col: 7, Velocity: 100}, Action{Kind: ActionScript, Slot: 7}},
		{PadEvent{Row: 1, Col: 0, Velocity: 100}, Action{Kind: ActionScript, Slot: interp.MetroSlot}},
		{PadEvent{Row: 1, Col: 1, Velocity: 100}, Action{Kind: ActionScript, Slot: interp.InitSlot}},
		{PadEvent{Row: 0, Col: 8, Velocity: 100}, Action{Kind: ActionMetroToggle}},
		{PadEvent{Row: 1, Col: 2, Velocity: 100}, Action{}},
		{PadEvent{Row: 5, Col: 5, Velocity: 100}, Action{}},
		{PadEvent{Row: 8, Col: 0, Velocity: 100}, Action{}},
	}
	for _, tt := range tests {
		if got := PadAction(tt.ev); got != tt.want {
			t.Errorf("PadAction(%+v) = %+v, want %+v", tt.ev, got, tt.want)
		}
	}
}

func TestNoteAction(t *testing.T) {
	tests := []struct {
		note, vel uint8
		want      Action
	}{
		{36, 100, Action{Kind: ActionScript, Slot: 0}},
		{43, 100, Action{Kind: ActionScript, Slot: 7}},
		{44, 100, Action{}},
		{35, 100, Action{}},
		{36, 0, Action{}},
	}
	for _, tt := range tests {
		if got := NoteAction(NoteEvent{Note: tt.note, Velocity: tt.vel}, 36); got != tt.want {
			t.Errorf("NoteAction(%d, %d) = %+v, want %+v", tt.note, tt.vel, got, tt.want)
		}
	}

	// base near the top of the range must not wrap
	if got := NoteAction(NoteEvent{Note: 127, Velocity: 1}, 125); got.Slot != 2 {
		t.Errorf("NoteAction near 127 = %+v", got)
	}
}

func TestLaunchpadNoteMapping(t *testing.T) {
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			if row == 8 && col == 8 {
				continue
			}
			r, c := noteToRowCol(rowColToNote(row, col))
			if r != row || c != col {
				t.Errorf("(%d,%d) round trips to (%d,%d)", row, col, r, c)
			}
		}
	}
	if r, _ := noteToRowCol(5); r != -1 {
		t.Errorf("note 5 mapped to row %d", r)
	}
}

func TestNearestColor(t *testing.T) {
	if got := nearestColor([3]uint8{0, 0, 0}); got != 0 {
		t.Errorf("black = %d", got)
	}
	if got := nearestColor([3]uint8{250, 5, 5}); got != 5 {
		t.Errorf("red = %d", got)
	}
	if got := nearestColor([3]uint8{255, 255, 250}); got != 119 {
		t.Errorf("white = %d", got)
	}
}

func TestClassify(t *testing.T) {
	dm := NewDeviceManager([]KeyboardPort{{Match: "keystep", Channel: 2}}, "monokit out")

	tests := []struct {
		port    string
		kind    ControllerType
		channel int
	}{
		{"Launchpad X LPX MIDI", ControllerLaunchpad, 0},
		{"Launchpad X LPX DAW", ControllerUnknown, 0},
		{"Arturia KeyStep 32", ControllerKeyboard, 2},
		{"Monokit Out", ControllerUnknown, 0},
		{"IAC Driver Bus 1", ControllerUnknown, 0},
	}
	for _, tt := range tests {
		kind, ch := dm.classify(tt.port)
		if kind != tt.kind || ch != tt.channel {
			t.Errorf("classify(%q) = %v/%d, want %v/%d", tt.port, kind, ch, tt.kind, tt.channel)
		}
	}
}
