package tui

import (
	"testing"

	"generation-x/midi"
	"generation-x/sequencer"
)

func TestKeyEvent(t *testing.T) {
	v := sequencer.View{
		Playing: true,
		Knob:    60,
		Tracks:  []sequencer.TrackView{{Muted: false}, {Muted: true}},
	}

	tests := []struct {
		key  string
		want midi.ControlEvent
	}{
		{"p", midi.ControlEvent{Control: midi.CCTransport, Value: midi.ValueOff}},
		{"1", midi.ControlEvent{Control: midi.CCMuteFirst, Value: midi.ValueOff}},
		{"2", midi.ControlEvent{Control: midi.CCMuteFirst + 1, Value: midi.ValueOn}},
		{"@", midi.ControlEvent{Control: midi.CCTriggerFirst + 1, Value: midi.ValueOn}},
		{"^", midi.ControlEvent{Control: midi.CCTriggerFirst + 5, Value: midi.ValueOn}},
		{"<", midi.ControlEvent{Control: midi.CCScalePrev, Value: midi.ValueOn}},
		{">", midi.ControlEvent{Control: midi.CCScaleNext, Value: midi.ValueOn}},
		{"+", midi.ControlEvent{Control: midi.CCTempoKnob, Value: 68}},
		{"-", midi.ControlEvent{Control: midi.CCTempoKnob, Value: 52}},
		{"0", midi.ControlEvent{Control: midi.CCTempoKnob, Value: midi.KnobCenter}},
	}
	for _, tt := range tests {
		got, ok := KeyEvent(tt.key, v)
		if !ok || got != tt.want {
			t.Errorf("KeyEvent(%q) = %+v, %v; want %+v", tt.key, got, ok, tt.want)
		}
	}

	if _, ok := KeyEvent("z", v); ok {
		t.Error("unbound key should not map")
	}
}

func TestKeyEventKnobClamps(t *testing.T) {
	got, _ := KeyEvent("+", sequencer.View{Knob: 125})
	if got.Value != 127 {
		t.Errorf("up = %d, want 127", got.Value)
	}
	got, _ = KeyEvent("-", sequencer.View{Knob: 3})
	if got.Value != 0 {
		t.Errorf("down = %d, want 0", got.Value)
	}
	got, _ = KeyEvent("p", sequencer.View{})
	if got.Value != midi.ValueOn {
		t.Error("stopped transport should start")
	}
}
