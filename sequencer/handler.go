package sequencer

import (
	"context"

	"generation-x/debug"
	"generation-x/midi"
	"generation-x/music"
)

// ControlHandler maps controller events onto session mutations
type ControlHandler struct {
	session *Session
}

func NewControlHandler(s *Session) *ControlHandler {
	return &ControlHandler{session: s}
}

// Handle applies one control change. Unknown controls are ignored.
func (h *ControlHandler) Handle(ev midi.ControlEvent) error {
	s := h.session
	switch {
	case ev.Control == midi.CCTransport:
		switch ev.Value {
		case midi.ValueOn:
			s.SetPlaying(true)
		case midi.ValueOff:
			s.SetPlaying(false)
		}

	case midi.IsMute(ev.Control):
		// the mute buttons light when the channel is audible
		return s.SetMuted(int(ev.Control-midi.CCMuteFirst), ev.Value != midi.ValueOn)

	case midi.IsTrigger(ev.Control):
		if ev.Value == 0 {
			return nil
		}
		return s.Regenerate(int(ev.Control - midi.CCTriggerFirst))

	case ev.Control == midi.CCScalePrev:
		if ev.Value == midi.ValueOn {
			q := s.PrevScale()
			debug.Log("ctrl", "<< %s", describeScale(q, s))
		}

	case ev.Control == midi.CCScaleNext:
		if ev.Value == midi.ValueOn {
			q := s.NextScale()
			debug.Log("ctrl", ">> %s", describeScale(q, s))
		}

	case ev.Control == midi.CCTempoKnob:
		s.SetKnob(ev.Value)
	}
	return nil
}

// Run feeds events to Handle until ctx ends or events closes
func (h *ControlHandler) Run(ctx context.Context, events <-chan midi.ControlEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.Handle(ev); err != nil {
				debug.Log("ctrl", "cc %d=%d: %v", ev.Control, ev.Value, err)
			}
		}
	}
}

func describeScale(q *music.Scale, s *Session) string {
	if q == nil {
		return "off (" + s.BaseScale().String() + ")"
	}
	return q.String()
}
