package music

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidPitchClass = errors.New("invalid pitch class")
	ErrInvalidScaleType  = errors.New("invalid scale type")
	ErrInvalidMeter      = errors.New("invalid meter")
	ErrEmptyScale        = errors.New("scale has no members")
	ErrPitchOutOfRange   = errors.New("pitch out of range")
)

// Supported octave table (inclusive)
const (
	MinOctave = 0
	MaxOctave = 7
)

// DefaultVelocity is the velocity a freshly built pitch carries
const DefaultVelocity uint8 = 64

// PitchClass is one of the 12 chromatic letter classes, 0 = c, 11 = b
type PitchClass int

var pitchClassNames = [12]string{
	"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b",
}

// ParsePitchClass maps a letter name ("c", "F#", ...) to its class
func ParsePitchClass(name string) (PitchClass, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, pc := range pitchClassNames {
		if pc == n {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPitchClass, name)
}

// PitchClassNames returns the 12 recognized letter names in chromatic order
func PitchClassNames() []string {
	return pitchClassNames[:]
}

func (pc PitchClass) Valid() bool {
	return pc >= 0 && pc < 12
}

func (pc PitchClass) String() string {
	if !pc.Valid() {
		return fmt.Sprintf("pc(%d)", int(pc))
	}
	return pitchClassNames[pc]
}

// Pitch is a concrete device note. Identity is the absolute note number.
type Pitch struct {
	Number   uint8
	Class    PitchClass
	Octave   int
	Velocity uint8
}

// NewPitch builds the pitch for a class in an octave (C4 = 60)
func NewPitch(pc PitchClass, octave int) (Pitch, error) {
	if !pc.Valid() {
		return Pitch{}, fmt.Errorf("%w: %d", ErrInvalidPitchClass, int(pc))
	}
	n := 12*(octave+1) + int(pc)
	if n < 0 || n > 127 {
		return Pitch{}, fmt.Errorf("%w: %s%d", ErrPitchOutOfRange, pc, octave)
	}
	return Pitch{
		Number:   uint8(n),
		Class:    pc,
		Octave:   octave,
		Velocity: DefaultVelocity,
	}, nil
}

// PitchFromName resolves a letter name and octave, e.g. ("g#", 3)
func PitchFromName(name string, octave int) (Pitch, error) {
	pc, err := ParsePitchClass(name)
	if err != nil {
		return Pitch{}, err
	}
	return NewPitch(pc, octave)
}

// PitchFromNumber builds a pitch from a device note number
func PitchFromNumber(n uint8) (Pitch, error) {
	if n > 127 {
		return Pitch{}, fmt.Errorf("%w: %d", ErrPitchOutOfRange, n)
	}
	return Pitch{
		Number:   n,
		Class:    PitchClass(int(n) % 12),
		Octave:   int(n)/12 - 1,
		Velocity: DefaultVelocity,
	}, nil
}

// Name is the upper-case letter name, e.g. "C#"
func (p Pitch) Name() string {
	return strings.ToUpper(p.Class.String())
}

// FullName is the letter name with octave, e.g. "C#4"
func (p Pitch) FullName() string {
	return fmt.Sprintf("%s%d", p.Name(), p.Octave)
}

// Frequency in Hz, equal temperament with A4 = 440
func (p Pitch) Frequency() float64 {
	return 440 * math.Pow(2, (float64(p.Number)-69)/12)
}

// Equal compares absolute note numbers only
func (p Pitch) Equal(o Pitch) bool {
	return p.Number == o.Number
}

func (p Pitch) String() string {
	return p.FullName()
}
