package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-monokit/config"
	"go-monokit/interp"
	"go-monokit/midi"
	"go-monokit/sequencer"
	"go-monokit/theme"
	"go-monokit/widgets"
)

const (
	outputRows  = 8
	patternRows = 16
	scriptWidth = 48
	maxHistory  = 100
)

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager // may be nil
	Config    *config.Config
	Theme     *theme.Theme

	input textinput.Model
	keys  keyMap
	help  help.Model

	view    sequencer.View
	script  int  // slot shown in the script panel
	line    int  // selected line, -1 for none
	editing bool // enter stores into the selected line
	preview bool

	history []string
	histPos int

	controllers map[string]midi.ControllerType
	quitting    bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, cfg *config.Config, th *theme.Theme) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "command, or :save NAME"
	ti.CharLimit = 120
	ti.Width = scriptWidth
	ti.Focus()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return Model{
		Manager:     manager,
		DeviceMgr:   deviceMgr,
		Config:      cfg,
		Theme:       th,
		input:       ti,
		keys:        defaultKeys(),
		help:        help.New(),
		line:        -1,
		controllers: make(map[string]midi.ControllerType),
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		ListenForUpdates(m.Manager),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		m.view = m.Manager.Snapshot()
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit, true

	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return nil, true

	case key.Matches(msg, m.keys.NextScript):
		m.selectScript(1)
		return nil, true

	case key.Matches(msg, m.keys.PrevScript):
		m.selectScript(-1)
		return nil, true

	case key.Matches(msg, m.keys.LineUp):
		m.moveLine(-1)
		return nil, true

	case key.Matches(msg, m.keys.LineDown):
		m.moveLine(1)
		return nil, true

	case key.Matches(msg, m.keys.Edit):
		if m.line < 0 {
			m.line = 0
		}
		m.editing = true
		m.input.Prompt = fmt.Sprintf("%s:%d ", interp.SlotName(m.script), m.line+1)
		m.input.SetValue(m.view.Scripts[m.script].Lines[m.line])
		m.input.CursorEnd()
		return nil, true

	case key.Matches(msg, m.keys.Cancel):
		m.stopEditing()
		m.line = -1
		return nil, true

	case key.Matches(msg, m.keys.Run):
		m.Manager.RunScript(m.script)
		return nil, true

	case key.Matches(msg, m.keys.Metro):
		m.Manager.ToggleMetro()
		return nil, true

	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
		return nil, true

	case key.Matches(msg, m.keys.HistPrev):
		m.recall(-1)
		return nil, true

	case key.Matches(msg, m.keys.HistNext):
		m.recall(1)
		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil, true
	}
	return nil, false
}

// submit stores the input into the selected line when editing, otherwise
// runs it as a live command.
func (m *Model) submit() {
	text := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if m.editing {
		if err := m.Manager.SetLine(m.script, m.line, text); err != nil {
			m.Manager.Log(interp.FormatError(err))
		}
		m.stopEditing()
		if m.line < interp.LinesPerScript-1 {
			m.line++
		}
		m.view = m.Manager.Snapshot()
		return
	}

	if text == "" {
		return
	}
	m.remember(text)
	if out, ok := m.Manager.Meta(text); ok {
		m.Manager.Log(append([]string{"> " + text}, out...)...)
	} else {
		m.Manager.Execute(text)
	}
	m.view = m.Manager.Snapshot()
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Prompt = "> "
}

func (m *Model) selectScript(delta int) {
	m.stopEditing()
	m.script = (m.script + delta + interp.NumScripts) % interp.NumScripts
}

func (m *Model) moveLine(delta int) {
	m.line += delta
	if m.line < 0 {
		m.line = 0
	}
	if m.line >= interp.LinesPerScript {
		m.line = interp.LinesPerScript - 1
	}
}

func (m *Model) remember(line string) {
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
		if len(m.history) > maxHistory {
			m.history = m.history[1:]
		}
	}
	m.histPos = len(m.history)
}

func (m *Model) recall(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.histPos += delta
	if m.histPos < 0 {
		m.histPos = 0
	}
	if m.histPos >= len(m.history) {
		m.histPos = len(m.history)
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.histPos])
	m.input.CursorEnd()
}

func (m *Model) handleDevice(event midi.DeviceEvent) {
	switch event.Type {
	case midi.DeviceConnected:
		m.controllers[event.ID] = event.Controller.Type()
		m.Manager.AttachController(event.Controller, m.Config.BaseNote(event.ID))
		m.Manager.Log(fmt.Sprintf("CONNECTED %s (%s)", event.ID, event.Controller.Type()))
	case midi.DeviceDisconnected:
		delete(m.controllers, event.ID)
		m.Manager.DetachController(event.ID)
		m.Manager.Log("DISCONNECTED " + event.ID)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header()))
	out.WriteString("\n\n")

	sv := widgets.ScriptView{
		Name:     interp.SlotName(m.script),
		Lines:    m.view.Scripts[m.script].Lines,
		Previews: m.view.Previews[m.script],
		Selected: m.line,
		Preview:  m.preview,
		Running:  m.view.Running[m.script],
	}
	left := lipgloss.NewStyle().Width(scriptWidth).Render(
		widgets.RenderScript(m.Theme, sv, scriptWidth) + "\n\n" + m.padMap())
	right := widgets.RenderPatterns(m.Theme, m.view.Patterns, patternRows)
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	out.WriteString("\n\n")

	out.WriteString(widgets.RenderVars(m.Theme, m.view.Vars, m.script))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.params()))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderOutput(m.Theme, m.view.Output, outputRows))
	out.WriteString("\n")
	out.WriteString(m.input.View())
	out.WriteString("\n\n")
	out.WriteString(m.help.View(m.keys))
	if m.help.ShowAll {
		out.WriteString("\n\n")
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(controllerHelp)))
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(strings.Join(sequencer.MetaHelp, "\n")))
	}
	return out.String()
}

func (m Model) header() string {
	mt := m.view.Metro
	state := m.Theme.Symbols.MetroOff
	if mt.Active {
		state = m.Theme.Symbols.MetroOn
	}

	scene := m.view.Scene
	if scene == "" {
		scene = "untitled"
	}

	var devices []string
	for id, t := range m.controllers {
		devices = append(devices, fmt.Sprintf("%s:%s", t, id))
	}
	sort.Strings(devices)
	dev := ""
	if len(devices) > 0 {
		dev = "  " + strings.Join(devices, " ")
	}

	return fmt.Sprintf("go-monokit  %c M %dms →%s  scene:%s  late:%d%s",
		state, mt.IntervalMS, interp.SlotName(mt.Script), scene, m.view.Stats.Late, dev)
}

func (m Model) params() string {
	var parts []string
	for _, p := range m.view.Params {
		if p.Set {
			parts = append(parts, fmt.Sprintf("%s %d", p.Name, p.Value))
		}
	}
	if len(parts) == 0 {
		return "no engine parameters sent"
	}
	return strings.Join(parts, "  ")
}

// padMap mirrors the controller's script row on screen.
func (m Model) padMap() string {
	on := [3]uint8(m.Theme.Palette.Lookup(theme.RoleSuccess))
	idle := [3]uint8(m.Theme.Palette.Lookup(theme.RoleMuted))

	pads := make([]widgets.PadState, 0, interp.NumScripts)
	for slot := 0; slot < interp.NumScripts; slot++ {
		p := widgets.PadState{Label: interp.SlotName(slot), Color: idle}
		if m.view.Running[slot] {
			p.Color, p.Lit = on, true
		} else if hasLines(m.view.Scripts[slot]) {
			p.Lit = true
		}
		pads = append(pads, p)
	}
	return widgets.RenderPadRow(pads)
}

func hasLines(s interp.Script) bool {
	for _, l := range s.Lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

var controllerHelp = []widgets.KeySection{
	{
		Title: "Launchpad",
		Keys: []widgets.KeyBinding{
			{Key: "bottom row", Desc: "run scripts 1-8"},
			{Key: "row 2 pad 1", Desc: "run M"},
			{Key: "row 2 pad 2", Desc: "run I"},
			{Key: "side pad 1", Desc: "metro on/off"},
		},
	},
	{
		Title: "Keyboard",
		Keys: []widgets.KeyBinding{
			{Key: "base note +0-7", Desc: "run scripts 1-8"},
		},
	},
}
