package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"

	"go-monokit/interp"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestStoreSaveListLoad(t *testing.T) {
	st := NewStore(t.TempDir())
	base := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	st.now = fixedClock(base, base.Add(time.Minute))

	first := NewScene()
	first.Scripts[0].Lines[0] = "TR"
	second := NewScene()
	second.Scripts[0].Lines[0] = "PF 60"
	second.Metro.IntervalMS = 125

	f1, err := st.Save("live set", first)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != "2024-01-15_14-30-00.json" {
		t.Errorf("filename = %q", f1)
	}
	if _, err := st.Save("live set", second); err != nil {
		t.Fatal(err)
	}

	scenes, err := st.ListScenes()
	if err != nil || len(scenes) != 1 || scenes[0] != "live-set" {
		t.Fatalf("scenes = %v, %v", scenes, err)
	}

	saves, err := st.ListSaves("live set")
	if err != nil || len(saves) != 2 {
		t.Fatalf("saves = %v, %v", saves, err)
	}
	if !saves[0].Timestamp.After(saves[1].Timestamp) {
		t.Error("saves not newest first")
	}

	newest, err := st.Load("live set", "")
	if err != nil {
		t.Fatal(err)
	}
	if newest.Scripts[0].Lines[0] != "PF 60" || newest.Metro.IntervalMS != 125 {
		t.Errorf("newest = %+v", newest.Metro)
	}

	older, err := st.Load("live set", f1)
	if err != nil {
		t.Fatal(err)
	}
	if older.Scripts[0].Lines[0] != "TR" {
		t.Errorf("older script = %q", older.Scripts[0].Lines[0])
	}
}

func TestStoreLoadErrors(t *testing.T) {
	st := NewStore(t.TempDir())

	_, err := st.Load("empty", "")
	if !errors.Is(err, ErrNoSaves) || ftag.Get(err) != ftag.NotFound {
		t.Errorf("empty scene: %v", err)
	}

	_, err = st.Load("empty", "2024-01-15_14-30-00.json")
	if ftag.Get(err) != ftag.NotFound {
		t.Errorf("missing file: %v", err)
	}

	dir := filepath.Join(st.Dir(), "broken")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), []byte("{not json"), 0644)
	_, err = st.Load("broken", "")
	if ftag.Get(err) != ftag.InvalidArgument {
		t.Errorf("damaged file: %v", err)
	}
}

func TestStoreLoadKeepsDefaults(t *testing.T) {
	st := NewStore(t.TempDir())
	dir := filepath.Join(st.Dir(), "old")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "2024-01-15_14-30-00.json"), []byte(`{"scripts":[{"lines":["TR"]}]}`), 0644)

	sc, err := st.Load("old", "")
	if err != nil {
		t.Fatal(err)
	}
	if sc.Metro.IntervalMS != 500 || sc.Metro.Script != interp.MetroSlot {
		t.Errorf("metro defaults lost: %+v", sc.Metro)
	}
	if sc.Patterns.Patterns[3].Length != 16 {
		t.Errorf("pattern default length = %d", sc.Patterns.Patterns[3].Length)
	}
}

func TestStoreRenameAndDelete(t *testing.T) {
	st := NewStore(t.TempDir())
	st.now = fixedClock(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC))

	f, err := st.Save("a", NewScene())
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := st.RenameSave("a", f, "take two?")
	if err != nil {
		t.Fatal(err)
	}
	if renamed != "2024-01-15_14-30-00_take-two.json" {
		t.Errorf("renamed = %q", renamed)
	}

	saves, _ := st.ListSaves("a")
	if len(saves) != 1 || saves[0].Name != "take-two" {
		t.Fatalf("saves = %+v", saves)
	}

	if _, err := st.RenameSave("a", "notes.txt", "x"); ftag.Get(err) != ftag.InvalidArgument {
		t.Errorf("bad rename: %v", err)
	}

	if err := st.DeleteSave("a", renamed); err != nil {
		t.Fatal(err)
	}
	if saves, _ := st.ListSaves("a"); len(saves) != 0 {
		t.Errorf("saves after delete = %v", saves)
	}
	if err := st.DeleteScene("a"); err != nil {
		t.Fatal(err)
	}
	if scenes, _ := st.ListScenes(); len(scenes) != 0 {
		t.Errorf("scenes after delete = %v", scenes)
	}
}

func TestParseSaveName(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		name string
	}{
		{"2024-01-15_14-30-00.json", true, ""},
		{"2024-01-15_14-30-00_groove.json", true, "groove"},
		{"2024-01-15_14-30-00_.json", true, ""},
		{"groove.json", false, ""},
		{"2024-01-15_14-30-00.txt", false, ""},
	}
	for _, tt := range tests {
		info, ok := parseSaveName(tt.in)
		if ok != tt.ok || info.Name != tt.name {
			t.Errorf("parseSaveName(%q) = %+v, %v", tt.in, info, ok)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"my scene": "my-scene",
		"a/b\\c:d": "a-b-c-d",
		`"<x>"|*?`: "x",
		"..":       "untitled",
		"  ":       "untitled",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
