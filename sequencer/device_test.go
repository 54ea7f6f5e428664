package sequencer

import (
	"testing"

	"go-monokit/interp"
	"go-monokit/midi"
)

func ledAt(leds []LEDState, row, col int) (LEDState, bool) {
	for _, l := range leds {
		if l.Row == row && l.Col == col {
			return l, true
		}
	}
	return LEDState{}, false
}

func TestRenderLEDs(t *testing.T) {
	var in ledInputs
	in.hasScript[0] = true
	in.hasScript[interp.MetroSlot] = true
	in.flashing[3] = true

	leds := renderLEDs(in)

	if l, ok := ledAt(leds, midi.ScriptRow, 0); !ok || l.Color != colorScript {
		t.Errorf("script 1 = %+v, %v", l, ok)
	}
	if _, ok := ledAt(leds, midi.ScriptRow, 1); ok {
		t.Error("empty script 2 is lit")
	}
	if l, ok := ledAt(leds, midi.ScriptRow, 3); !ok || l.Color != colorRunning {
		t.Errorf("running script 4 = %+v, %v", l, ok)
	}
	if l, ok := ledAt(leds, midi.SystemRow, 0); !ok || l.Color != colorSystem {
		t.Errorf("metro script = %+v, %v", l, ok)
	}
	if l, ok := ledAt(leds, midi.ScriptRow, midi.SideCol); !ok || l.Color != colorMetroOff {
		t.Errorf("metro pad = %+v, %v", l, ok)
	}

	in.metroActive = true
	l, _ := ledAt(renderLEDs(in), midi.ScriptRow, midi.SideCol)
	if l.Color != colorMetroOn || l.Channel != midi.ChannelPulse {
		t.Errorf("active metro pad = %+v", l)
	}

	// every lit pad must map back to what it shows
	for _, l := range leds {
		a := midi.PadAction(midi.PadEvent{Row: l.Row, Col: l.Col, Velocity: 1})
		if a.Kind == midi.ActionNone {
			t.Errorf("LED at %d,%d has no action", l.Row, l.Col)
		}
	}
}

func TestLEDDiff(t *testing.T) {
	a := &attached{prev: make(map[[2]int]LEDState)}

	first := []LEDState{{Row: 0, Col: 0, Color: colorScript}, {Row: 0, Col: 1, Color: colorScript}}
	if got := a.diff(first); len(got) != 2 {
		t.Fatalf("first diff = %v", got)
	}
	if got := a.diff(first); len(got) != 0 {
		t.Errorf("unchanged diff = %v", got)
	}

	second := []LEDState{{Row: 0, Col: 0, Color: colorRunning}}
	got := a.diff(second)
	if len(got) != 2 {
		t.Fatalf("second diff = %v", got)
	}
	for _, u := range got {
		switch u.Col {
		case 0:
			if u.Color != colorRunning {
				t.Errorf("changed LED = %+v", u)
			}
		case 1:
			if u.Color != [3]uint8{} {
				t.Errorf("removed LED not cleared: %+v", u)
			}
		}
	}
}
