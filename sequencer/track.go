package sequencer

import (
	"generation-x/generate"
	"generation-x/music"
)

// HistoryDepth is how many recent velocities a track remembers
const HistoryDepth = 8

// Track is one channel: its generation record, the material last generated
// from it, and the Sequencer playing that material.
// Unexported fields belong to the Session and are guarded by its lock.
type Track struct {
	Name    string
	Channel uint8 // MIDI output channel, 0-based
	Params  generate.Params
	Seq     *Sequencer

	sequence music.Sequence
	muted    bool
	history  [HistoryDepth]uint8
	last     *music.Pitch
}

// NewTrack creates a track; the Session attaches its Sequencer
func NewTrack(name string, channel uint8, params generate.Params, seq music.Sequence) *Track {
	return &Track{
		Name:     name,
		Channel:  channel,
		Params:   params,
		sequence: seq,
	}
}

// Kind returns the generation kind, empty when the track has no record
func (t *Track) Kind() generate.Kind {
	if t.Params == nil {
		return ""
	}
	return t.Params.Kind()
}

// push records a velocity at the front of the history, dropping the oldest
func (t *Track) push(v uint8) {
	copy(t.history[1:], t.history[:HistoryDepth-1])
	t.history[0] = v
}
