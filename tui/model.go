package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"generation-x/midi"
	"generation-x/sequencer"
	"generation-x/theme"
	"generation-x/widgets"
)

// knobStep is how far one +/- key press turns the virtual knob
const knobStep = 8

// Model is the console view. Keys are translated into controller events and
// go through the same handler as the hardware.
type Model struct {
	Session  *sequencer.Session
	Handler  *sequencer.ControlHandler
	Theme    *theme.Theme
	Devices  string // device status line
	status   string
	quitting bool
}

type UpdateMsg struct{}

func NewModel(session *sequencer.Session, handler *sequencer.ControlHandler, th *theme.Theme, devices string) Model {
	return Model{
		Session: session,
		Handler: handler,
		Theme:   th,
		Devices: devices,
	}
}

func ListenForUpdates(session *sequencer.Session) tea.Cmd {
	return func() tea.Msg {
		<-session.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Session)
}

// KeyEvent maps a key to the controller event it stands for
func KeyEvent(key string, v sequencer.View) (midi.ControlEvent, bool) {
	switch key {
	case "p", " ":
		val := midi.ValueOn
		if v.Playing {
			val = midi.ValueOff
		}
		return midi.ControlEvent{Control: midi.CCTransport, Value: val}, true

	case "1", "2", "3", "4", "5", "6":
		i := int(key[0] - '1')
		// pressing toggles: a muted channel comes back on
		val := midi.ValueOff
		if i < len(v.Tracks) && v.Tracks[i].Muted {
			val = midi.ValueOn
		}
		return midi.ControlEvent{Control: midi.CCMuteFirst + uint8(i), Value: val}, true

	case "!", "@", "#", "$", "%", "^":
		i := strings.Index("!@#$%^", key)
		return midi.ControlEvent{Control: midi.CCTriggerFirst + uint8(i), Value: midi.ValueOn}, true

	case "<", ",":
		return midi.ControlEvent{Control: midi.CCScalePrev, Value: midi.ValueOn}, true

	case ">", ".":
		return midi.ControlEvent{Control: midi.CCScaleNext, Value: midi.ValueOn}, true

	case "+", "=":
		return midi.ControlEvent{Control: midi.CCTempoKnob, Value: uint8(min(int(v.Knob)+knobStep, 127))}, true

	case "-", "_":
		return midi.ControlEvent{Control: midi.CCTempoKnob, Value: uint8(max(int(v.Knob)-knobStep, 0))}, true

	case "0":
		return midi.ControlEvent{Control: midi.CCTempoKnob, Value: midi.KnobCenter}, true
	}
	return midi.ControlEvent{}, false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if ev, ok := KeyEvent(msg.String(), m.Session.Snapshot()); ok {
			m.status = ""
			if err := m.Handler.Handle(ev); err != nil {
				m.status = err.Error()
			}
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Session)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.Session.Snapshot()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := string(m.Theme.Symbols.Stopped) + " STOP"
	if v.Playing {
		playState = string(m.Theme.Symbols.Playing) + " PLAY"
	}
	quantize := "off"
	if v.Quantize != nil {
		quantize = v.Quantize.String()
	}
	header := headerStyle.Render(fmt.Sprintf("generation-x  %s  %s  quantize:%s  knob:%d",
		playState, v.Base, quantize, v.Knob))

	var tracks strings.Builder
	cols := make([]widgets.Column, 0, len(v.Tracks))
	for i, t := range v.Tracks {
		mark := m.Theme.Symbols.Audible
		style := activeStyle
		if t.Muted {
			mark = m.Theme.Symbols.Muted
			style = dimStyle
		}
		line := fmt.Sprintf("%d %c %-4s %-8s %6.1fbpm (%g) %d/%d  %-4s %s",
			i+1, mark, t.Name, t.Kind, t.Tempo, t.OriginalTempo, t.Meter.Upper, t.Meter.Lower,
			t.Last, t.Generation.String()[:8])
		tracks.WriteString(style.Render(line))
		tracks.WriteString("\n")

		cols = append(cols, widgets.Column{
			Label:  fmt.Sprintf("%d", i+1),
			Values: t.History[:],
			Dim:    t.Muted,
		})
	}

	grid := widgets.RenderColumns(cols, widgets.PadStyle{
		Color: func(vel uint8) [3]uint8 { return m.Theme.Velocity(vel) },
		Lit:   m.Theme.Symbols.Lit,
		Unlit: m.Theme.Symbols.Unlit,
		Dim:   m.Theme.Palette.Lookup(theme.RoleMuted),
	})

	help := dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{
		Keys: []widgets.KeyBinding{
			{Key: "p / space", Desc: "play / stop"},
			{Key: "1-6", Desc: "mute / unmute channel"},
			{Key: "shift+1-6", Desc: "regenerate random channel"},
			{Key: "< / >", Desc: "quantize one fifth down / up"},
			{Key: "- / + / 0", Desc: "tempo knob down / up / centre"},
			{Key: "q", Desc: "quit"},
		},
	}}))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	if m.Devices != "" {
		out.WriteString(dimStyle.Render(m.Devices))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(tracks.String())
	out.WriteString("\n")
	out.WriteString(grid)
	out.WriteString("\n\n")
	out.WriteString(help)
	if m.status != "" {
		out.WriteString("\n\n")
		out.WriteString(warnStyle.Render(m.status))
	}

	return out.String()
}
