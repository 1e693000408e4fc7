package music

import (
	"fmt"
	"strings"
)

// ScaleType selects the step pattern a scale is derived with
type ScaleType string

const (
	Major         ScaleType = "major"
	NaturalMinor  ScaleType = "minor"
	HarmonicMinor ScaleType = "harmonic_minor"
	MelodicMinor  ScaleType = "melodic_minor"
)

// Semitone steps between successive degrees, tonic to octave
var scaleSteps = map[ScaleType][7]int{
	Major:         {2, 2, 1, 2, 2, 2, 1},
	NaturalMinor:  {2, 1, 2, 2, 1, 2, 2},
	HarmonicMinor: {2, 1, 2, 2, 1, 3, 1},
	MelodicMinor:  {2, 1, 2, 2, 2, 2, 1},
}

// ScaleTypes lists the supported scale types
func ScaleTypes() []ScaleType {
	return []ScaleType{Major, NaturalMinor, HarmonicMinor, MelodicMinor}
}

func ParseScaleType(s string) (ScaleType, error) {
	t := ScaleType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := scaleSteps[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidScaleType, s)
	}
	return t, nil
}

// Scale is a tonic plus scale type. Comparable with ==.
type Scale struct {
	Tonic PitchClass
	Type  ScaleType
}

// NewScale parses a tonic name and scale type name
func NewScale(tonic, scaleType string) (Scale, error) {
	pc, err := ParsePitchClass(tonic)
	if err != nil {
		return Scale{}, err
	}
	t, err := ParseScaleType(scaleType)
	if err != nil {
		return Scale{}, err
	}
	return Scale{Tonic: pc, Type: t}, nil
}

func (s Scale) String() string {
	return fmt.Sprintf("%s %s", s.Tonic, s.Type)
}

// ScaleDegrees is the derived view of a scale.
// Degrees holds 8 entries: seven degrees plus the octave repeat.
// OctaveBoundary is the first index whose class wrapped past b.
type ScaleDegrees struct {
	Membership     [12]bool
	Degrees        [8]PitchClass
	OctaveBoundary int
}

// DeriveScale walks the chromatic circle from the tonic by the scale's steps
func DeriveScale(s Scale) (ScaleDegrees, error) {
	var d ScaleDegrees
	if !s.Tonic.Valid() {
		return d, fmt.Errorf("%w: %d", ErrInvalidPitchClass, int(s.Tonic))
	}
	steps, ok := scaleSteps[s.Type]
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrInvalidScaleType, string(s.Type))
	}

	idx := int(s.Tonic)
	prev := idx
	d.OctaveBoundary = len(d.Degrees) - 1
	boundarySet := false
	for i := range d.Degrees {
		d.Degrees[i] = PitchClass(idx % 12)
		if !boundarySet && idx%12 < prev%12 {
			d.OctaveBoundary = i
			boundarySet = true
		}
		d.Membership[idx%12] = true
		prev = idx
		if i < len(steps) {
			idx += steps[i]
		}
	}
	return d, nil
}

// Contains reports whether a class is a member of the scale
func (d ScaleDegrees) Contains(pc PitchClass) bool {
	return pc.Valid() && d.Membership[pc]
}

// AllOctaveInstances returns every in-scale pitch across the supported
// octaves in ascending note order
func AllOctaveInstances(s Scale) ([]Pitch, error) {
	d, err := DeriveScale(s)
	if err != nil {
		return nil, err
	}
	return instances(d.Membership), nil
}

// PentatonicInstances is AllOctaveInstances restricted to degrees 1,2,3,5,6
func PentatonicInstances(s Scale) ([]Pitch, error) {
	d, err := DeriveScale(s)
	if err != nil {
		return nil, err
	}
	var member [12]bool
	for _, i := range []int{0, 1, 2, 4, 5} {
		member[d.Degrees[i]] = true
	}
	return instances(member), nil
}

func instances(member [12]bool) []Pitch {
	var out []Pitch
	for oct := MinOctave; oct <= MaxOctave; oct++ {
		for pc := PitchClass(0); pc < 12; pc++ {
			if !member[pc] {
				continue
			}
			p, err := NewPitch(pc, oct)
			if err != nil {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// IndexOf finds the instance of a class in an octave, -1 if absent
func IndexOf(pitches []Pitch, pc PitchClass, octave int) int {
	for i, p := range pitches {
		if p.Class == pc && p.Octave == octave {
			return i
		}
	}
	return -1
}

// NearestInScale returns the nearest member at or below and at or above pc,
// wrapping around the 12-class circle
func NearestInScale(pc PitchClass, membership [12]bool) (lower, upper PitchClass, err error) {
	if !pc.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidPitchClass, int(pc))
	}
	if membership[pc] {
		return pc, pc, nil
	}
	lower, upper = -1, -1
	for i := 1; i < 12; i++ {
		if c := PitchClass((int(pc) - i + 12) % 12); lower < 0 && membership[c] {
			lower = c
		}
		if c := PitchClass((int(pc) + i) % 12); upper < 0 && membership[c] {
			upper = c
		}
	}
	if lower < 0 || upper < 0 {
		return 0, 0, ErrEmptyScale
	}
	return lower, upper, nil
}

// Direction picks a neighbour when quantizing
type Direction int

const (
	Down Direction = iota
	Up
)

// Quantize snaps a pitch to the target scale, keeping octave and velocity
func Quantize(p Pitch, target Scale, dir Direction) (Pitch, error) {
	d, err := DeriveScale(target)
	if err != nil {
		return Pitch{}, err
	}
	lower, upper, err := NearestInScale(p.Class, d.Membership)
	if err != nil {
		return Pitch{}, err
	}
	pc := lower
	if dir == Up {
		pc = upper
	}
	if pc == p.Class {
		return p, nil
	}
	q, err := NewPitch(pc, p.Octave)
	if err != nil {
		return Pitch{}, err
	}
	q.Velocity = p.Velocity
	return q, nil
}

// NextInCircleOfFifths moves one fifth clockwise
func NextInCircleOfFifths(s Scale) (Scale, error) {
	d, err := DeriveScale(s)
	if err != nil {
		return Scale{}, err
	}
	return Scale{Tonic: d.Degrees[4], Type: s.Type}, nil
}

// PrevInCircleOfFifths moves one fifth counterclockwise
func PrevInCircleOfFifths(s Scale) (Scale, error) {
	d, err := DeriveScale(s)
	if err != nil {
		return Scale{}, err
	}
	return Scale{Tonic: d.Degrees[len(d.Degrees)-5], Type: s.Type}, nil
}
