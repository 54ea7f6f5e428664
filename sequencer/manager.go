package sequencer

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-monokit/debug"
	"go-monokit/dispatch"
	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/midi"
	"go-monokit/pattern"
)

const (
	outputLines = 256
	ledFPS      = 30
	flashFor    = 120 * time.Millisecond
)

// View is a copy of everything the UI draws
type View struct {
	Scene    string
	Scripts  interp.Scripts
	Previews [interp.NumScripts][interp.LinesPerScript]string
	Patterns pattern.Storage
	Vars     interp.Variables
	Metro    metro.Snapshot
	Stats    metro.Stats
	Params   []ParamValue
	Output   []string
	Running  [interp.NumScripts]bool // started within the last flash
}

// ParamValue is the last value sent for an engine parameter
type ParamValue struct {
	Name  string
	Value int16
	Set   bool
}

// Manager owns the interpreter. Every script run, edit and snapshot
// happens on the goroutine inside Run; other goroutines talk to it through
// requests, triggers and the metro fire channel.
type Manager struct {
	ictx  *interp.Context
	exec  *interp.Executor
	disp  *dispatch.Dispatcher
	clock *metro.Clock
	store *Store
	metro metroControl

	requests chan func()
	triggers chan int
	done     chan struct{}

	// loop goroutine only
	output  []string
	capture *[]string
	scene   string

	mu          sync.Mutex
	lastRun     [interp.NumScripts]time.Time
	hasScript   [interp.NumScripts]bool
	controllers map[string]*attached

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wires an interpreter to clock. Engine messages go through the
// clock goroutine to the clock's sink. store may be nil when scenes are not
// needed.
func NewManager(ictx *interp.Context, clock *metro.Clock, store *Store) *Manager {
	m := &Manager{
		ictx:        ictx,
		clock:       clock,
		store:       store,
		metro:       metroControl{state: clock.State(), clock: clock},
		requests:    make(chan func()),
		triggers:    make(chan int, 16),
		done:        make(chan struct{}),
		controllers: make(map[string]*attached),
		UpdateChan:  make(chan struct{}, 1),
	}
	m.disp = dispatch.New(clock, clock.State())
	m.exec = interp.NewExecutor(ictx, m.disp, m.metro, m.emit)
	m.exec.OnScript = m.scriptStarted
	return m
}

// Dispatcher returns the command table, for help listings.
func (m *Manager) Dispatcher() *dispatch.Dispatcher {
	return m.disp
}

// Run executes the init script and then serves requests until ctx is
// done. It also runs the metro clock and the LED refresh loop.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	go m.clock.Run(ctx)
	go m.ledLoop(ctx)

	m.exec.Execute(interp.InitSlot, 0)
	m.afterStep()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-m.requests:
			fn()
		case slot := <-m.clock.Fire():
			m.exec.Execute(slot, 0)
		case slot := <-m.triggers:
			m.exec.Execute(slot, 0)
		}
		m.afterStep()
	}
}

// do runs fn on the loop goroutine and waits for it. It reports false when
// the loop has stopped.
func (m *Manager) do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case m.requests <- func() { fn(); close(finished) }:
	case <-m.done:
		return false
	}
	select {
	case <-finished:
		return true
	case <-m.done:
		return false
	}
}

// emit is the executor's output; it feeds the history ring and any live
// command waiting for its output.
func (m *Manager) emit(line string) {
	m.record(line)
	if m.capture != nil {
		*m.capture = append(*m.capture, line)
	}
}

func (m *Manager) record(line string) {
	m.output = append(m.output, line)
	if over := len(m.output) - outputLines; over > 0 {
		m.output = append(m.output[:0], m.output[over:]...)
	}
}

func (m *Manager) scriptStarted(slot int) {
	if !interp.ValidScript(slot) {
		return
	}
	m.mu.Lock()
	m.lastRun[slot] = time.Now()
	m.mu.Unlock()
}

func (m *Manager) afterStep() {
	var has [interp.NumScripts]bool
	for slot := range has {
		for line := 0; line < interp.LinesPerScript; line++ {
			if strings.TrimSpace(m.ictx.Scripts.Line(slot, line)) != "" {
				has[slot] = true
				break
			}
		}
	}
	m.mu.Lock()
	m.hasScript = has
	m.mu.Unlock()

	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Execute runs one immediate-mode line and returns what it printed.
func (m *Manager) Execute(line string) []string {
	var out []string
	m.do(func() {
		m.record("> " + strings.TrimSpace(line))
		m.capture = &out
		m.exec.ExecuteLive(line)
		m.capture = nil
	})
	return out
}

// RunScript queues a script to run. It never blocks: a burst of triggers
// beyond the queue is dropped.
func (m *Manager) RunScript(slot int) {
	select {
	case m.triggers <- slot:
	default:
		debug.Log("seq", "trigger queue full, dropped script %s", interp.SlotName(slot))
	}
}

// SetLine replaces one line of a script.
func (m *Manager) SetLine(slot, line int, text string) error {
	var err error
	if !m.do(func() {
		err = m.ictx.Scripts.SetLine(slot, line, strings.TrimSpace(text))
	}) {
		return errStopped()
	}
	return err
}

// ClearScript empties a script.
func (m *Manager) ClearScript(slot int) {
	m.do(func() {
		m.ictx.Scripts.Clear(slot)
	})
}

// ToggleMetro starts or stops the metro.
func (m *Manager) ToggleMetro() {
	m.metro.SetActive(!m.clock.State().Snapshot().Active)
}

// Snapshot copies the state the UI shows.
func (m *Manager) Snapshot() View {
	var v View
	m.do(func() {
		v = View{
			Scene:    m.scene,
			Scripts:  *m.ictx.Scripts,
			Patterns: *m.ictx.Patterns,
			Vars:     *m.ictx.Vars,
			Metro:    m.clock.State().Snapshot(),
			Stats:    m.clock.Stats(),
			Output:   append([]string(nil), m.output...),
		}
		for slot := 0; slot < interp.NumScripts; slot++ {
			for line := 0; line < interp.LinesPerScript; line++ {
				v.Previews[slot][line] = m.ictx.Preview(slot, line)
			}
		}
		for _, p := range engine.Params {
			val, ok := m.disp.Param(p.Name)
			v.Params = append(v.Params, ParamValue{Name: p.Name, Value: val, Set: ok})
		}
	})

	m.mu.Lock()
	now := time.Now()
	for slot, t := range m.lastRun {
		v.Running[slot] = now.Sub(t) < flashFor
	}
	m.mu.Unlock()
	return v
}

// Log appends lines to the output history.
func (m *Manager) Log(lines ...string) {
	m.do(func() {
		for _, l := range lines {
			m.record(l)
		}
	})
}

// Store returns the scene store, or nil.
func (m *Manager) Store() *Store {
	return m.store
}

// SaveScene writes the current scripts, patterns and metro settings as a
// new save of scene name.
func (m *Manager) SaveScene(name string) (string, error) {
	if m.store == nil {
		return "", errNoStore()
	}
	var sc *Scene
	if !m.do(func() {
		sc = Capture(m.ictx, m.clock.State().Snapshot())
		m.scene = name
	}) {
		return "", errStopped()
	}
	filename, err := m.store.Save(name, sc)
	if err != nil {
		return "", err
	}
	debug.Log("seq", "saved scene %s/%s", name, filename)
	return filename, nil
}

// LoadScene replaces everything with a save of scene name (the newest when
// filename is empty) and runs its init script.
func (m *Manager) LoadScene(name, filename string) error {
	if m.store == nil {
		return errNoStore()
	}
	sc, err := m.store.Load(name, filename)
	if err != nil {
		return err
	}
	if !m.do(func() {
		sc.Apply(m.ictx, m.metro)
		m.scene = name
		m.record("LOADED " + strings.ToUpper(name))
		m.exec.Execute(interp.InitSlot, 0)
	}) {
		return errStopped()
	}
	debug.Log("seq", "loaded scene %s", name)
	return nil
}

// AttachController routes a controller's presses to scripts and starts
// LED feedback on it. Keys from baseNote upward fire scripts 1-8.
func (m *Manager) AttachController(c midi.Controller, baseNote uint8) {
	debug.Log("ctrl", "attach %s (%s)", c.ID(), c.Type())
	m.mu.Lock()
	m.controllers[c.ID()] = &attached{c: c, prev: make(map[[2]int]LEDState)}
	m.mu.Unlock()

	go m.listen(c, baseNote)
}

// DetachController stops LED feedback. Its listener ends when the
// controller closes its channels.
func (m *Manager) DetachController(id string) {
	m.mu.Lock()
	delete(m.controllers, id)
	m.mu.Unlock()
}

func (m *Manager) listen(c midi.Controller, baseNote uint8) {
	pads, notes := c.PadEvents(), c.NoteEvents()
	for pads != nil || notes != nil {
		select {
		case ev, ok := <-pads:
			if !ok {
				pads = nil
				continue
			}
			m.handleAction(midi.PadAction(ev))
		case ev, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			m.handleAction(midi.NoteAction(ev, baseNote))
		}
	}
}

func (m *Manager) handleAction(a midi.Action) {
	switch a.Kind {
	case midi.ActionScript:
		m.RunScript(a.Slot)
	case midi.ActionMetroToggle:
		m.ToggleMetro()
	}
}

// ledLoop runs at fixed FPS and flushes LED updates
func (m *Manager) ledLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.flushLEDs()
		}
	}
}

// flushLEDs sends only changed LEDs to each controller (diffing + batching)
func (m *Manager) flushLEDs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.controllers) == 0 {
		return
	}

	in := ledInputs{
		hasScript:   m.hasScript,
		metroActive: m.clock.State().Snapshot().Active,
	}
	now := time.Now()
	for slot, t := range m.lastRun {
		in.flashing[slot] = now.Sub(t) < flashFor
	}
	leds := renderLEDs(in)

	for id, a := range m.controllers {
		updates := a.diff(leds)
		if len(updates) == 0 {
			continue
		}
		if err := a.c.SetLEDBatch(updates); err != nil {
			debug.Log("led", "%s: %v", id, err)
		}
	}
}

// metroControl applies metro effects to the shared state right away, so a
// following M reads the new value, and queues the same change to the
// clock so a sleeping clock wakes up.
type metroControl struct {
	state *metro.State
	clock *metro.Clock
}

func (c metroControl) SetInterval(ms int) {
	c.state.SetInterval(ms)
	c.clock.SetInterval(ms)
}

func (c metroControl) SetActive(active bool) {
	c.state.SetActive(active)
	c.clock.SetActive(active)
}

func (c metroControl) SetScript(slot int) {
	c.state.SetScript(slot)
	c.clock.SetScript(slot)
}

func (c metroControl) Reset() {
	c.state.Reset()
	c.clock.Reset()
}
