package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const timestampLayout = "2006-01-02_15-04-05"

// ErrNoSaves is returned when a scene has nothing to load
var ErrNoSaves = fault.New("no saves found")

func errStopped() error {
	return fault.New("manager stopped", fmsg.WithDesc("run loop has exited", "STOPPED"))
}

func errNoStore() error {
	return fault.New("no scene store", fmsg.WithDesc("manager has no store", "SCENES ARE NOT AVAILABLE"))
}

// SaveInfo represents a saved scene file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Store keeps scenes as folders of timestamped JSON saves:
//
//	<dir>/<scene>/2024-01-15_14-30-00.json
//	<dir>/<scene>/2024-01-15_14-30-00_take-two.json
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// DefaultStore returns the store under ~/.config/go-monokit/scenes
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("find home directory"))
	}
	return NewStore(filepath.Join(home, ".config", "go-monokit", "scenes")), nil
}

// Dir returns the root folder.
func (st *Store) Dir() string {
	return st.dir
}

func (st *Store) sceneDir(name string) string {
	return filepath.Join(st.dir, sanitizeFilename(name))
}

// ListScenes returns all scene folder names
func (st *Store) ListScenes() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list scenes"))
	}

	var scenes []string
	for _, entry := range entries {
		if entry.IsDir() {
			scenes = append(scenes, entry.Name())
		}
	}

	sort.Strings(scenes)
	return scenes, nil
}

// ListSaves returns timestamped saves for a scene, newest first
func (st *Store) ListSaves(name string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(st.sceneDir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list saves"))
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// parseSaveName accepts 2006-01-02_15-04-05.json with an optional _name
// before the extension.
func parseSaveName(filename string) (SaveInfo, bool) {
	base, ok := strings.CutSuffix(filename, ".json")
	if !ok || len(base) < len(timestampLayout) {
		return SaveInfo{}, false
	}

	ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}

	info := SaveInfo{Filename: filename, Timestamp: ts}
	if rest := base[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
		info.Name = rest[1:]
	}
	return info, true
}

// Save writes sc as a new timestamped save and returns its filename.
func (st *Store) Save(name string, sc *Scene) (string, error) {
	if name == "" {
		name = "untitled"
	}

	dir := st.sceneDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fault.Wrap(err, fmsg.With("create scene folder"))
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("encode scene"))
	}

	filename := st.now().Format(timestampLayout) + ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fault.Wrap(err, fmsg.WithDesc("write scene", "COULD NOT SAVE SCENE"))
	}
	return filename, nil
}

// Load reads a specific save, or the newest one when filename is empty.
func (st *Store) Load(name, filename string) (*Scene, error) {
	if filename == "" {
		saves, err := st.ListSaves(name)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fault.Wrap(ErrNoSaves,
				fmsg.WithDesc(fmt.Sprintf("scene %s", name), "NO SAVES FOR SCENE "+strings.ToUpper(name)),
				ftag.With(ftag.NotFound))
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(st.sceneDir(name), filepath.Base(filename)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("read scene", "NO SUCH SAVE: "+filename),
				ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("read scene"))
	}

	// missing fields keep their defaults
	sc := NewScene()
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode scene", "SCENE FILE IS DAMAGED"),
			ftag.With(ftag.InvalidArgument))
	}
	return sc, nil
}

// DeleteSave deletes a specific save file
func (st *Store) DeleteSave(name, filename string) error {
	if err := os.Remove(filepath.Join(st.sceneDir(name), filename)); err != nil {
		return fault.Wrap(err, fmsg.With("delete save"))
	}
	return nil
}

// RenameSave changes the name part of a save and keeps its timestamp. It
// returns the new filename.
func (st *Store) RenameSave(name, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fault.New("invalid save filename",
			fmsg.WithDesc(oldFilename, "NOT A SAVE FILE"),
			ftag.With(ftag.InvalidArgument))
	}

	newFilename := info.Timestamp.Format(timestampLayout) + ".json"
	if newName != "" {
		newFilename = info.Timestamp.Format(timestampLayout) + "_" + sanitizeFilename(newName) + ".json"
	}

	dir := st.sceneDir(name)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", fault.Wrap(err, fmsg.With("rename save"))
	}
	return newFilename, nil
}

// DeleteScene deletes an entire scene folder
func (st *Store) DeleteScene(name string) error {
	if err := os.RemoveAll(st.sceneDir(name)); err != nil {
		return fault.Wrap(err, fmsg.With("delete scene"))
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	" ", "-", "/", "-", "\\", "-", ":", "-",
	"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = filenameReplacer.Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}
