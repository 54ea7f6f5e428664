package sequencer

import (
	"fmt"
	"strings"

	"go-monokit/interp"
)

// MetaHelp lists the colon commands understood by Meta
var MetaHelp = []string{
	":save NAME          save the scene",
	":load NAME [FILE]   load the newest (or a given) save",
	":scenes             list scenes",
	":saves NAME         list saves of a scene",
	":rename NAME F NEW  give save F a name",
	":delete NAME [FILE] delete a save, or the whole scene",
	":clear N            empty script N (1-8, M, I)",
	":stats              metro tick counters",
}

// Meta runs a colon command. It reports false when line is not one, so
// the caller can hand it to Execute instead.
func (m *Manager) Meta(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		return nil, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return MetaHelp, true
	}

	name := ""
	if len(fields) > 1 {
		name = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "save":
		if name == "" {
			return []string{"ERROR: USAGE: :save NAME"}, true
		}
		filename, err := m.SaveScene(name)
		if err != nil {
			return []string{interp.FormatError(err)}, true
		}
		return []string{"SAVED " + name + "/" + filename}, true

	case "load":
		if name == "" {
			return []string{"ERROR: USAGE: :load NAME [FILE]"}, true
		}
		file := ""
		if len(fields) > 2 {
			file = fields[2]
		}
		if err := m.LoadScene(name, file); err != nil {
			return []string{interp.FormatError(err)}, true
		}
		return []string{"LOADED " + name}, true

	case "scenes":
		if m.store == nil {
			return []string{interp.FormatError(errNoStore())}, true
		}
		scenes, err := m.store.ListScenes()
		if err != nil {
			return []string{interp.FormatError(err)}, true
		}
		if len(scenes) == 0 {
			return []string{"NO SCENES"}, true
		}
		return scenes, true

	case "saves":
		if m.store == nil {
			return []string{interp.FormatError(errNoStore())}, true
		}
		saves, err := m.store.ListSaves(name)
		if err != nil {
			return []string{interp.FormatError(err)}, true
		}
		var out []string
		for _, s := range saves {
			out = append(out, s.Filename)
		}
		if len(out) == 0 {
			return []string{"NO SAVES"}, true
		}
		return out, true

	case "rename":
		if m.store == nil {
			return []string{interp.FormatError(errNoStore())}, true
		}
		if len(fields) < 4 {
			return []string{"ERROR: USAGE: :rename NAME FILE NEW"}, true
		}
		renamed, err := m.store.RenameSave(name, fields[2], strings.Join(fields[3:], " "))
		if err != nil {
			return []string{interp.FormatError(err)}, true
		}
		return []string{"RENAMED " + name + "/" + renamed}, true

	case "delete":
		if m.store == nil {
			return []string{interp.FormatError(errNoStore())}, true
		}
		if name == "" {
			return []string{"ERROR: USAGE: :delete NAME [FILE]"}, true
		}
		if len(fields) > 2 {
			if err := m.store.DeleteSave(name, fields[2]); err != nil {
				return []string{interp.FormatError(err)}, true
			}
			return []string{"DELETED " + name + "/" + fields[2]}, true
		}
		if err := m.store.DeleteScene(name); err != nil {
			return []string{interp.FormatError(err)}, true
		}
		return []string{"DELETED " + name}, true

	case "clear":
		slot, ok := interp.ParseSlot(strings.ToUpper(name))
		if !ok {
			return []string{"ERROR: NO SUCH SCRIPT: " + name}, true
		}
		m.ClearScript(slot)
		return []string{"CLEARED " + interp.SlotName(slot)}, true

	case "stats":
		s := m.clock.Stats()
		return []string{fmt.Sprintf("TICKS %d  DROPPED %d  LATE %d", s.Ticks, s.Dropped, s.Late)}, true
	}

	return []string{"ERROR: UNKNOWN META COMMAND: " + fields[0]}, true
}
