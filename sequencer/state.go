package sequencer

import (
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/pattern"
)

// Scene is everything a save file holds: scripts, patterns and the metro
// settings. Registers and operator state are runtime only.
type Scene struct {
	Scripts  interp.Scripts  `json:"scripts"`
	Patterns pattern.Storage `json:"patterns"`
	Metro    MetroScene      `json:"metro"`
}

// MetroScene is the saved part of the metro
type MetroScene struct {
	IntervalMS int  `json:"intervalMs"`
	Active     bool `json:"active"`
	Script     int  `json:"script"`
}

// NewScene returns an empty scene with default metro settings.
func NewScene() *Scene {
	return &Scene{
		Patterns: *pattern.NewStorage(),
		Metro: MetroScene{
			IntervalMS: metro.DefaultInterval,
			Script:     interp.MetroSlot,
		},
	}
}

// Capture copies the current interpreter and metro state into a scene.
func Capture(ctx *interp.Context, snap metro.Snapshot) *Scene {
	return &Scene{
		Scripts:  *ctx.Scripts,
		Patterns: *ctx.Patterns,
		Metro: MetroScene{
			IntervalMS: snap.IntervalMS,
			Active:     snap.Active,
			Script:     snap.Script,
		},
	}
}

// Apply replaces the interpreter state with the scene and pushes the metro
// settings to m. Counters and operator positions start over.
func (s *Scene) Apply(ctx *interp.Context, m interp.MetroSink) {
	*ctx.Scripts = s.Scripts
	*ctx.Patterns = s.Patterns
	ctx.Patterns.Normalize()
	ctx.ResetRuntime()

	if m == nil {
		return
	}
	m.SetInterval(metro.ClampInterval(s.Metro.IntervalMS))
	if metro.ValidScript(s.Metro.Script) {
		m.SetScript(s.Metro.Script)
	} else {
		m.SetScript(interp.MetroSlot)
	}
	m.SetActive(s.Metro.Active)
}
