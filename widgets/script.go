package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-monokit/interp"
	"go-monokit/pattern"
	"go-monokit/theme"
)

// ScriptView is what RenderScript draws
type ScriptView struct {
	Name     string
	Lines    [interp.LinesPerScript]string
	Previews [interp.LinesPerScript]string
	Selected int  // line being edited, -1 for none
	Preview  bool // show operator values instead of source
	Running  bool
}

// RenderScript draws one script with line numbers. Long lines are cut to
// width.
func RenderScript(th *theme.Theme, v ScriptView, width int) string {
	title := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	text := lipgloss.NewStyle().Foreground(th.FG())
	sel := lipgloss.NewStyle().Foreground(th.Cursor())

	mark := th.Symbols.Idle
	if v.Running {
		mark = th.Symbols.Running
	}
	lines := []string{title.Render(fmt.Sprintf("%c SCRIPT %s", mark, v.Name))}

	for i := 0; i < interp.LinesPerScript; i++ {
		src := v.Lines[i]
		if v.Preview && strings.TrimSpace(src) != "" {
			src = v.Previews[i]
		}
		src = truncate(src, width-4)

		gutter := dim.Render(fmt.Sprintf(" %d ", i+1))
		if i == v.Selected {
			lines = append(lines, sel.Render(fmt.Sprintf("%c%d ", th.Symbols.Selected, i+1))+sel.Render(src))
			continue
		}
		lines = append(lines, gutter+text.Render(src))
	}
	return strings.Join(lines, "\n")
}

// RenderPatterns draws the pattern table: one column per pattern, rows
// from 0 to rows-1.
func RenderPatterns(th *theme.Theme, st pattern.Storage, rows int) string {
	head := lipgloss.NewStyle().Foreground(th.Accent())
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	text := lipgloss.NewStyle().Foreground(th.FG())
	here := lipgloss.NewStyle().Foreground(th.Active())

	const cell = 7
	var b strings.Builder

	b.WriteString("   ")
	for n := range st.Patterns {
		label := " P" + strconv.Itoa(n)
		if n == st.Working {
			label = string(th.Symbols.Working) + "P" + strconv.Itoa(n)
		}
		b.WriteString(head.Render(fmt.Sprintf("%*s", cell, label)))
	}

	for row := 0; row < rows && row < pattern.MaxLength; row++ {
		b.WriteString("\n")
		b.WriteString(dim.Render(fmt.Sprintf("%2d ", row)))
		for _, p := range st.Patterns {
			switch {
			case row >= p.Length:
				b.WriteString(dim.Render(fmt.Sprintf("%*c", cell, th.Symbols.Beyond)))
			case row == p.Index:
				v := string(th.Symbols.Playhead) + strconv.Itoa(int(p.Data[row]))
				b.WriteString(here.Render(fmt.Sprintf("%*s", cell, v)))
			default:
				b.WriteString(text.Render(fmt.Sprintf("%*d", cell, p.Data[row])))
			}
		}
	}
	return b.String()
}

// RenderVars draws every register as NAME value pairs.
func RenderVars(th *theme.Theme, vars interp.Variables, slot int) string {
	name := lipgloss.NewStyle().Foreground(th.Muted())
	val := lipgloss.NewStyle().Foreground(th.FG())

	var parts []string
	for _, r := range interp.RegisterNames() {
		v, _ := vars.Get(r, slot)
		parts = append(parts, name.Render(r)+" "+val.Render(strconv.Itoa(int(v))))
	}
	return strings.Join(parts, "  ")
}

// RenderOutput returns the last n output lines, errors highlighted.
func RenderOutput(th *theme.Theme, lines []string, n int) string {
	errStyle := lipgloss.NewStyle().Foreground(th.Warning())
	echo := lipgloss.NewStyle().Foreground(th.Muted())
	text := lipgloss.NewStyle().Foreground(th.FG())

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, 0, n)
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "ERROR:"):
			out = append(out, errStyle.Render(l))
		case strings.HasPrefix(l, "> "):
			out = append(out, echo.Render(l))
		default:
			out = append(out, text.Render(l))
		}
	}
	for len(out) < n {
		out = append([]string{""}, out...)
	}
	return strings.Join(out, "\n")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
