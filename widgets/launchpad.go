package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, lit bool) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	if lit {
		return style.Render("■")
	}
	return style.Render("□")
}

// PadState is one pad on the on-screen controller map
type PadState struct {
	Label string
	Color [3]uint8
	Lit   bool
}

// RenderPadRow renders a row of pads with their labels underneath
func RenderPadRow(pads []PadState) string {
	var top, bottom strings.Builder
	for i, p := range pads {
		if i > 0 {
			top.WriteString(" ")
			bottom.WriteString(" ")
		}
		top.WriteString(RenderPad(p.Color, p.Lit))
		bottom.WriteString(p.Label)
	}
	return top.String() + "\n" + bottom.String()
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color, true), name, desc)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
