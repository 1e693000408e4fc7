package generate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"generation-x/music"
)

var ErrInvalidMode = errors.New("invalid arpeggio mode")

// Mode is an "Nth up" / "Nth down" stride rule
type Mode struct {
	Interval   int
	Descending bool
}

// ParseMode reads "3th", "3th up", "5th down". Direction defaults to up.
func ParseMode(s string) (Mode, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 || len(fields) > 2 {
		return Mode{}, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	num := fields[0]
	for _, suffix := range []string{"th", "st", "nd", "rd"} {
		num = strings.TrimSuffix(num, suffix)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return Mode{}, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	m := Mode{Interval: n}
	if len(fields) == 2 {
		switch fields[1] {
		case "up":
		case "down":
			m.Descending = true
		default:
			return Mode{}, fmt.Errorf("%w: unsupported direction %q", ErrInvalidMode, fields[1])
		}
	}
	return m, nil
}

func (m Mode) String() string {
	dir := "up"
	if m.Descending {
		dir = "down"
	}
	return fmt.Sprintf("%dth %s", m.Interval, dir)
}

// Arpeggio collects total pitches by striding Interval-1 positions through
// the octave-spanning scale table, starting from the in-scale instance of
// root (or its lower neighbour) in octave. The stride wraps at either end.
func Arpeggio(root music.PitchClass, scale music.Scale, mode Mode, total, octave int) ([]music.Pitch, error) {
	if total < 1 {
		return nil, fmt.Errorf("arpeggio needs at least one note, got %d", total)
	}
	d, err := music.DeriveScale(scale)
	if err != nil {
		return nil, err
	}
	lower, _, err := music.NearestInScale(root, d.Membership)
	if err != nil {
		return nil, err
	}
	all, err := music.AllOctaveInstances(scale)
	if err != nil {
		return nil, err
	}
	start := music.IndexOf(all, lower, octave)
	if start < 0 {
		return nil, fmt.Errorf("%w: %s%d", music.ErrPitchOutOfRange, lower, octave)
	}

	stride := mode.Interval - 1
	if mode.Descending {
		stride = -stride
	}
	n := len(all)
	notes := make([]music.Pitch, 0, total)
	for i := 0; i < total; i++ {
		idx := ((start+i*stride)%n + n) % n
		notes = append(notes, all[idx])
	}
	return notes, nil
}

// ArpeggioBars spreads the arpeggio round-robin over bars of tm.Upper notes
func ArpeggioBars(notes []music.Pitch, tm music.TempoMeter, bars int) []music.Bar {
	if len(notes) == 0 {
		return nil
	}
	d := tm.NoteDuration()
	out := make([]music.Bar, 0, bars)
	next := 0
	for b := 0; b < bars; b++ {
		bar := make(music.Bar, 0, tm.Upper)
		for i := 0; i < tm.Upper; i++ {
			bar = append(bar, music.Note(notes[next], d))
			next = (next + 1) % len(notes)
		}
		out = append(out, bar)
	}
	return out
}
