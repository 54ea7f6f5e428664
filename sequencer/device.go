package sequencer

import (
	"go-monokit/interp"
	"go-monokit/midi"
)

// LEDState describes the state of a single LED
type LEDState struct {
	Row, Col int
	Color    [3]uint8 // RGB color - controller maps to its palette
	Channel  uint8    // 0=static, 2=pulse
}

var (
	colorScript   = [3]uint8{40, 60, 120}
	colorRunning  = [3]uint8{255, 255, 255}
	colorSystem   = [3]uint8{150, 0, 200}
	colorMetroOn  = [3]uint8{0, 255, 0}
	colorMetroOff = [3]uint8{180, 60, 60}
)

// ledInputs is what the grid shows, gathered under the manager lock
type ledInputs struct {
	hasScript   [interp.NumScripts]bool
	flashing    [interp.NumScripts]bool
	metroActive bool
}

// renderLEDs lays the scripts out the way midi.PadAction reads them.
// Empty scripts stay dark.
func renderLEDs(in ledInputs) []LEDState {
	var leds []LEDState
	add := func(slot, row, col int, idle [3]uint8) {
		switch {
		case in.flashing[slot]:
			leds = append(leds, LEDState{Row: row, Col: col, Color: colorRunning})
		case in.hasScript[slot]:
			leds = append(leds, LEDState{Row: row, Col: col, Color: idle})
		}
	}

	for slot := 0; slot < interp.UserScripts; slot++ {
		add(slot, midi.ScriptRow, slot, colorScript)
	}
	add(interp.MetroSlot, midi.SystemRow, 0, colorSystem)
	add(interp.InitSlot, midi.SystemRow, 1, colorSystem)

	metroLED := LEDState{Row: midi.ScriptRow, Col: midi.SideCol, Color: colorMetroOff}
	if in.metroActive {
		metroLED.Color = colorMetroOn
		metroLED.Channel = midi.ChannelPulse
	}
	return append(leds, metroLED)
}

// attached is a controller plus what its LEDs currently show
type attached struct {
	c    midi.Controller
	prev map[[2]int]LEDState
}

// diff returns only the LEDs that changed since the last call, including
// ones that went dark.
func (a *attached) diff(leds []LEDState) []midi.LEDUpdate {
	next := make(map[[2]int]LEDState, len(leds))
	var updates []midi.LEDUpdate

	for _, led := range leds {
		key := [2]int{led.Row, led.Col}
		next[key] = led
		if prev, ok := a.prev[key]; !ok || prev != led {
			updates = append(updates, midi.LEDUpdate{
				Row:     led.Row,
				Col:     led.Col,
				Color:   led.Color,
				Channel: led.Channel,
			})
		}
	}

	for key := range a.prev {
		if _, ok := next[key]; !ok {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1]})
		}
	}

	a.prev = next
	return updates
}
