package sequencer

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/midi"
)

type fixture struct {
	m      *Manager
	rec    *engine.Recorder
	cancel context.CancelFunc
}

func startManager(t *testing.T) *fixture {
	t.Helper()
	rec := &engine.Recorder{}
	clock := metro.NewClock(metro.NewState(metro.DefaultInterval, false), rec)
	m := NewManager(interp.NewContextWithRand(rand.New(rand.NewSource(7))), clock, NewStore(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	t.Cleanup(cancel)
	return &fixture{m: m, rec: rec, cancel: cancel}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (f *fixture) reg(name string) int16 {
	v := f.m.Snapshot()
	val, _ := v.Vars.Get(name, 0)
	return val
}

func (f *fixture) setLines(t *testing.T, slot int, lines ...string) {
	t.Helper()
	for i, l := range lines {
		if err := f.m.SetLine(slot, i, l); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExecuteReturnsOutput(t *testing.T) {
	f := startManager(t)

	if out := f.m.Execute("A 5"); len(out) != 0 {
		t.Errorf("A 5 printed %q", out)
	}
	out := f.m.Execute("ADD A 1")
	if len(out) != 1 || out[0] != "6" {
		t.Fatalf("ADD A 1 = %q", out)
	}

	hist := f.m.Snapshot().Output
	want := []string{"> A 5", "> ADD A 1", "6"}
	if len(hist) != len(want) {
		t.Fatalf("history = %q", hist)
	}
	for i := range want {
		if hist[i] != want[i] {
			t.Errorf("history[%d] = %q, want %q", i, hist[i], want[i])
		}
	}
}

func TestOutputHistoryIsBounded(t *testing.T) {
	f := startManager(t)
	for i := 0; i < outputLines; i++ {
		f.m.Execute("1")
	}
	if n := len(f.m.Snapshot().Output); n != outputLines {
		t.Errorf("history holds %d lines", n)
	}
}

func TestRunScriptFromOtherGoroutines(t *testing.T) {
	f := startManager(t)
	f.setLines(t, 0, "A ADD A 1")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.m.RunScript(0)
		}()
	}
	wg.Wait()
	eventually(t, "five runs", func() bool { return f.reg("A") == 5 })
}

func TestInitScriptRunsAtStartup(t *testing.T) {
	rec := &engine.Recorder{}
	clock := metro.NewClock(metro.NewState(metro.DefaultInterval, false), rec)
	ictx := interp.NewContextWithRand(rand.New(rand.NewSource(1)))
	ictx.Scripts.SetLine(interp.InitSlot, 0, "X 42")
	m := NewManager(ictx, clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	f := &fixture{m: m, rec: rec}
	if x := f.reg("X"); x != 42 {
		t.Errorf("X = %d after startup", x)
	}
}

func TestMetroFiresScript(t *testing.T) {
	f := startManager(t)
	f.setLines(t, interp.MetroSlot, "B ADD B 1")
	f.m.Execute("M 20")
	f.m.Execute("M.ACT 1")

	eventually(t, "metro ticks", func() bool { return f.reg("B") >= 3 })

	f.m.Execute("M.ACT 0")
	if f.m.Snapshot().Metro.Active {
		t.Error("metro still active")
	}
}

func TestMetroReadsAreImmediate(t *testing.T) {
	f := startManager(t)
	out := f.m.Execute("M 250; M")
	if len(out) != 1 || out[0] != "250" {
		t.Errorf("M after M 250 = %q", out)
	}
}

func TestEngineMessagesGoThroughClock(t *testing.T) {
	f := startManager(t)
	f.m.Execute("PF C3; TR")
	eventually(t, "engine messages", func() bool { return len(f.rec.Messages()) == 2 })

	msgs := f.rec.Messages()
	if msgs[0].String() != "PF 48" || msgs[1].String() != "TR" {
		t.Errorf("messages = %v", msgs)
	}

	v := f.m.Snapshot()
	for _, p := range v.Params {
		if p.Name == "PF" && (!p.Set || p.Value != 48) {
			t.Errorf("PF param = %+v", p)
		}
	}
}

func TestPreviewsInSnapshot(t *testing.T) {
	f := startManager(t)
	f.setLines(t, 0, `pr seq "7 9"`)

	if got := f.m.Snapshot().Previews[0][0]; got != `PR SEQ "7 9"` {
		t.Errorf("preview before run = %q", got)
	}
	f.m.RunScript(0)
	eventually(t, "first value", func() bool {
		return f.m.Snapshot().Previews[0][0] == "PR 7"
	})
	f.m.RunScript(0)
	eventually(t, "second value", func() bool {
		return f.m.Snapshot().Previews[0][0] == "PR 9"
	})
}

func TestSceneRoundTrip(t *testing.T) {
	f := startManager(t)
	f.setLines(t, 0, "TR")
	f.setLines(t, interp.InitSlot, "C 7")
	f.m.Execute("P.L 4; P 2 33; M 250")

	if _, err := f.m.SaveScene("demo"); err != nil {
		t.Fatal(err)
	}

	f.m.ClearScript(0)
	f.m.Execute("P 2 0; M 900; C 0")

	if err := f.m.LoadScene("demo", ""); err != nil {
		t.Fatal(err)
	}
	v := f.m.Snapshot()
	if v.Scripts[0].Lines[0] != "TR" {
		t.Errorf("script 1 = %q", v.Scripts[0].Lines[0])
	}
	if p := v.Patterns.Patterns[0]; p.Length != 4 || p.Data[2] != 33 {
		t.Errorf("pattern 0 = len %d data[2] %d", p.Length, p.Data[2])
	}
	if v.Metro.IntervalMS != 250 {
		t.Errorf("interval = %d", v.Metro.IntervalMS)
	}
	if v.Scene != "demo" {
		t.Errorf("scene = %q", v.Scene)
	}
	if c, _ := v.Vars.Get("C", 0); c != 7 {
		t.Errorf("init script did not run, C = %d", c)
	}
}

func TestLoadMissingScene(t *testing.T) {
	f := startManager(t)
	if err := f.m.LoadScene("nothing", ""); err == nil {
		t.Fatal("expected an error")
	}
}

type fakeController struct {
	pads  chan midi.PadEvent
	notes chan midi.NoteEvent

	mu      sync.Mutex
	batches [][]midi.LEDUpdate
}

func newFakeController() *fakeController {
	return &fakeController{
		pads:  make(chan midi.PadEvent, 8),
		notes: make(chan midi.NoteEvent, 8),
	}
}

func (c *fakeController) ID() string                        { return "fake" }
func (c *fakeController) Type() midi.ControllerType         { return midi.ControllerLaunchpad }
func (c *fakeController) PadEvents() <-chan midi.PadEvent   { return c.pads }
func (c *fakeController) NoteEvents() <-chan midi.NoteEvent { return c.notes }
func (c *fakeController) Close() error                      { return nil }

func (c *fakeController) SetLEDBatch(updates []midi.LEDUpdate) error {
	c.mu.Lock()
	c.batches = append(c.batches, updates)
	c.mu.Unlock()
	return nil
}

func (c *fakeController) lit(row, col int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := false
	for _, b := range c.batches {
		for _, u := range b {
			if u.Row == row && u.Col == col {
				on = u.Color != [3]uint8{}
			}
		}
	}
	return on
}

func TestControllerFiresScripts(t *testing.T) {
	f := startManager(t)
	f.setLines(t, 2, "D ADD D 1")

	c := newFakeController()
	f.m.AttachController(c, 36)

	c.pads <- midi.PadEvent{Row: midi.ScriptRow, Col: 2, Velocity: 100}
	c.notes <- midi.NoteEvent{Note: 38, Velocity: 100}
	eventually(t, "script 3 from pad and key", func() bool { return f.reg("D") == 2 })

	eventually(t, "script 3 LED", func() bool { return c.lit(midi.ScriptRow, 2) })

	c.pads <- midi.PadEvent{Row: midi.ScriptRow, Col: midi.SideCol, Velocity: 100}
	eventually(t, "metro toggle", func() bool { return f.m.Snapshot().Metro.Active })
	f.m.ToggleMetro()
}

func TestStoppedManagerDoesNotBlock(t *testing.T) {
	f := startManager(t)
	f.cancel()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		f.m.Execute("A 1")
		f.m.Snapshot()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("calls blocked after Run returned")
	}
}

func TestStoppedManagerReportsErrors(t *testing.T) {
	f := startManager(t)
	if _, err := f.m.SaveScene("kept"); err != nil {
		t.Fatal(err)
	}
	f.cancel()
	time.Sleep(20 * time.Millisecond)

	checks := map[string]error{
		"SetLine":   f.m.SetLine(0, 0, "TR"),
		"LoadScene": f.m.LoadScene("kept", ""),
	}
	_, checks["SaveScene"] = f.m.SaveScene("kept")
	for name, err := range checks {
		if err == nil {
			t.Errorf("%s after stop returned nil", name)
			continue
		}
		if got := interp.FormatError(err); got != "ERROR: STOPPED" {
			t.Errorf("%s after stop = %q", name, got)
		}
	}
}
