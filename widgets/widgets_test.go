package widgets

import (
	"strings"
	"testing"

	"go-monokit/interp"
	"go-monokit/pattern"
	"go-monokit/theme"
)

func TestRenderScriptPreview(t *testing.T) {
	th := theme.New(nil)
	v := ScriptView{Name: "1", Selected: -1}
	v.Lines[0] = `PR SEQ "1 2"`
	v.Previews[0] = "PR 1"

	if out := RenderScript(th, v, 40); !strings.Contains(out, `SEQ "1 2"`) {
		t.Errorf("source view = %q", out)
	}
	v.Preview = true
	out := RenderScript(th, v, 40)
	if strings.Contains(out, "SEQ") || !strings.Contains(out, "PR 1") {
		t.Errorf("preview view = %q", out)
	}
	if n := strings.Count(out, "\n"); n != interp.LinesPerScript {
		t.Errorf("script has %d line breaks", n)
	}
}

func TestRenderScriptTruncates(t *testing.T) {
	th := theme.New(nil)
	v := ScriptView{Name: "M", Selected: 0}
	v.Lines[0] = strings.Repeat("A", 50)

	out := RenderScript(th, v, 20)
	if strings.Contains(out, strings.Repeat("A", 17)) || !strings.Contains(out, "…") {
		t.Errorf("line not cut: %q", out)
	}
}

func TestRenderPatterns(t *testing.T) {
	th := theme.New(nil)
	st := pattern.NewStorage()
	st.Patterns[1].Data[0] = 42
	st.Patterns[2].SetLength(2)
	st.Working = 1

	out := RenderPatterns(th, *st, 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("rows = %d", len(lines))
	}
	if !strings.Contains(lines[0], "◆P1") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "▸42") {
		t.Errorf("row 0 = %q", lines[1])
	}
	if !strings.Contains(lines[3], "-") {
		t.Errorf("row 2 = %q", lines[3])
	}
}

func TestRenderOutputPads(t *testing.T) {
	th := theme.New(nil)
	out := RenderOutput(th, []string{"a", "b", "c"}, 2)
	if out != "b\nc" {
		t.Errorf("tail = %q", out)
	}
	if out := RenderOutput(th, []string{"x"}, 3); out != "\n\nx" {
		t.Errorf("padded = %q", out)
	}
}

func TestRenderVars(t *testing.T) {
	th := theme.New(nil)
	vars := interp.NewVariables()
	vars.Set("A", 0, 12)
	vars.Set("J", 3, -4)

	out := RenderVars(th, *vars, 3)
	if !strings.Contains(out, "A 12") || !strings.Contains(out, "J -4") {
		t.Errorf("vars = %q", out)
	}
}

func TestKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Pads", Keys: []KeyBinding{{"row 1", "scripts 1-8"}}}})
	if out != "Pads\n  row 1        scripts 1-8" {
		t.Errorf("help = %q", out)
	}
}
