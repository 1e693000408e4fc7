package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// Column is one controller column: a header label and its pad values,
// top pad first
type Column struct {
	Label  string
	Values []uint8
	Dim    bool
}

// PadStyle picks how a pad value is drawn
type PadStyle struct {
	Color func(v uint8) [3]uint8
	Lit   rune
	Unlit rune
	Dim   [3]uint8
}

// RenderColumns draws columns side by side, one pad row per line
func RenderColumns(cols []Column, style PadStyle) string {
	height := 0
	for _, c := range cols {
		height = max(height, len(c.Values))
	}

	var lines []string
	var head strings.Builder
	for i, c := range cols {
		if i > 0 {
			head.WriteString(" ")
		}
		head.WriteString(fmt.Sprintf("%-2.2s", c.Label))
	}
	lines = append(lines, head.String())

	for row := 0; row < height; row++ {
		var line strings.Builder
		for i, c := range cols {
			if i > 0 {
				line.WriteString(" ")
			}
			var v uint8
			if row < len(c.Values) {
				v = c.Values[row]
			}
			switch {
			case v == 0:
				line.WriteString(RenderPad(style.Dim, style.Unlit))
			case c.Dim:
				line.WriteString(RenderPad(style.Dim, style.Lit))
			default:
				line.WriteString(RenderPad(style.Color(v), style.Lit))
			}
			line.WriteString(" ")
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
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
