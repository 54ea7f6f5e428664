package engine

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Param describes one voice parameter command.
type Param struct {
	Name string
	Desc string
	Min  int16
	Max  int16
	CC   uint8 // 0 means the value is not sent as a controller
}

// Params is the voice parameter table. PF and VEL are not controllers:
// they set the note and velocity used by the next trigger.
var Params = []Param{
	{Name: "PF", Desc: "pitch (MIDI note)", Min: 0, Max: 127},
	{Name: "VEL", Desc: "trigger velocity", Min: 1, Max: 127},
	{Name: "AD", Desc: "amp decay ms", Min: 1, Max: 8000, CC: 72},
	{Name: "PD", Desc: "pitch env decay ms", Min: 1, Max: 8000, CC: 75},
	{Name: "PA", Desc: "pitch env amount", Min: -24, Max: 24, CC: 76},
	{Name: "FC", Desc: "filter cutoff Hz", Min: 20, Max: 16000, CC: 74},
	{Name: "FQ", Desc: "filter resonance", Min: 0, Max: 100, CC: 71},
	{Name: "FM", Desc: "fm amount", Min: 0, Max: 100, CC: 77},
	{Name: "MX", Desc: "osc mix", Min: 0, Max: 100, CC: 78},
	{Name: "VOL", Desc: "volume", Min: 0, Max: 100, CC: 7},
	{Name: "PAN", Desc: "pan", Min: -100, Max: 100, CC: 10},
	{Name: "DRV", Desc: "drive", Min: 0, Max: 100, CC: 79},
}

var paramIndex = func() map[string]int {
	m := make(map[string]int, len(Params))
	for i, p := range Params {
		m[p.Name] = i
	}
	return m
}()

// LookupParam finds a parameter by command name.
func LookupParam(name string) (Param, bool) {
	i, ok := paramIndex[name]
	if !ok {
		return Param{}, false
	}
	return Params[i], true
}

// ErrOutOfRange is returned by Check for values outside a parameter's range.
var ErrOutOfRange = fault.New("parameter value out of range")

// Check validates v against the parameter's range.
func (p Param) Check(v int16) error {
	if v < p.Min || v > p.Max {
		return fault.Wrap(ErrOutOfRange,
			fmsg.WithDesc(fmt.Sprintf("%s=%d", p.Name, v), fmt.Sprintf("%s MUST BE %d-%d", p.Name, p.Min, p.Max)),
			ftag.With(ftag.InvalidArgument),
		)
	}
	return nil
}

// Scale maps v from the parameter range onto 0-127.
func (p Param) Scale(v int16) uint8 {
	if v <= p.Min {
		return 0
	}
	if v >= p.Max {
		return 127
	}
	return uint8((int(v) - int(p.Min)) * 127 / (int(p.Max) - int(p.Min)))
}
