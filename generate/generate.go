package generate

import (
	"errors"
	"fmt"
	"math/rand"

	"generation-x/music"
)

var ErrUnsupportedKind = errors.New("unsupported generation kind")

// Generate resolves one record's values and produces its sequence
func Generate(p Params, scale music.Scale, r *rand.Rand) (music.Sequence, error) {
	c := p.Shared()
	tm, err := c.ResolveMeter(r)
	if err != nil {
		return music.Sequence{}, err
	}
	bars := c.Bars.Resolve(r)
	if bars < 1 {
		return music.Sequence{}, fmt.Errorf("bar count must be positive, got %d", bars)
	}

	switch p := p.(type) {
	case RandomParams:
		melody, err := RandomMelody(Melody{
			Scale:  scale,
			Meter:  tm,
			Octave: c.Octave.Resolve(r),
			Bars:   bars,
		}, p.Rest, r)
		if err != nil {
			return music.Sequence{}, err
		}
		return music.NewSequence(tm, melody), nil

	case ArpeggioParams:
		root, err := music.ParsePitchClass(p.StartNote)
		if err != nil {
			return music.Sequence{}, err
		}
		mode, err := ParseMode(p.Mode)
		if err != nil {
			return music.Sequence{}, err
		}
		notes, err := Arpeggio(root, scale, mode, p.TotalNotes.Resolve(r), c.Octave.Resolve(r))
		if err != nil {
			return music.Sequence{}, err
		}
		return music.NewSequence(tm, ArpeggioBars(notes, tm, bars)), nil
	}

	return music.Sequence{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, p.Kind())
}

// Sequences generates every record in order
func Sequences(params []Params, scale music.Scale, r *rand.Rand) ([]music.Sequence, error) {
	out := make([]music.Sequence, 0, len(params))
	for i, p := range params {
		seq, err := Generate(p, scale, r)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
		out = append(out, seq)
	}
	return out, nil
}
