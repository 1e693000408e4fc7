package generate

import (
	"fmt"
	"math/rand"

	"generation-x/music"
)

// Melody is the shared shape of the random generators.
// Velocity nil means DefaultVelocity.
type Melody struct {
	Scale    music.Scale
	Meter    music.TempoMeter
	Octave   int
	Bars     int
	Velocity *Velocity
}

func (m Melody) velocity() Velocity {
	if m.Velocity == nil {
		return DefaultVelocity
	}
	return *m.Velocity
}

// RandomMelody fills Bars bars of Meter.Upper slots. Each slot is a rest
// with probability rest/100, otherwise a uniformly drawn scale degree.
func RandomMelody(m Melody, rest int, r *rand.Rand) ([]music.Bar, error) {
	d, err := music.DeriveScale(m.Scale)
	if err != nil {
		return nil, err
	}
	vel := m.velocity()
	dur := m.Meter.NoteDuration()

	out := make([]music.Bar, 0, m.Bars)
	for b := 0; b < m.Bars; b++ {
		bar := make(music.Bar, 0, m.Meter.Upper)
		for slot := 0; slot < m.Meter.Upper; slot++ {
			if r.Intn(100) < rest {
				bar = append(bar, music.Rest(dur))
				continue
			}
			degree := r.Intn(len(d.Degrees) - 1)
			octave := m.Octave
			if degree >= d.OctaveBoundary {
				octave++
			}
			p, err := music.NewPitch(d.Degrees[degree], octave)
			if err != nil {
				return nil, err
			}
			p.Velocity = vel.For(slot+1, m.Meter.Upper, r)
			bar = append(bar, music.Note(p, dur))
		}
		out = append(out, bar)
	}
	return out, nil
}

// walk runs a cursor over the octave table and emits one note per slot.
// step returns the next cursor given the current one; the result is
// clamped into the table.
func (m Melody) walk(start int, all []music.Pitch, r *rand.Rand, step func(cur int) int) []music.Bar {
	vel := m.velocity()
	dur := m.Meter.NoteDuration()
	cur := clamp(start, 0, len(all)-1)

	out := make([]music.Bar, 0, m.Bars)
	for b := 0; b < m.Bars; b++ {
		bar := make(music.Bar, 0, m.Meter.Upper)
		for slot := 0; slot < m.Meter.Upper; slot++ {
			p := all[cur]
			p.Velocity = vel.For(slot+1, m.Meter.Upper, r)
			bar = append(bar, music.Note(p, dur))
			cur = clamp(step(cur), 0, len(all)-1)
		}
		out = append(out, bar)
	}
	return out
}

func (m Melody) table() ([]music.Pitch, int, error) {
	all, err := music.AllOctaveInstances(m.Scale)
	if err != nil {
		return nil, 0, err
	}
	start := music.IndexOf(all, m.Scale.Tonic, m.Octave)
	if start < 0 {
		return nil, 0, fmt.Errorf("%w: %s%d", music.ErrPitchOutOfRange, m.Scale.Tonic, m.Octave)
	}
	return all, start, nil
}

// RandomWalk moves the cursor by int(N(1, deviation)) each step
func RandomWalk(m Melody, deviation float64, r *rand.Rand) ([]music.Bar, error) {
	all, start, err := m.table()
	if err != nil {
		return nil, err
	}
	return m.walk(start, all, r, func(cur int) int {
		return cur + int(r.NormFloat64()*deviation+1)
	}), nil
}

// RandomWalkInRange moves by -deviation, 0 or +deviation and keeps the
// cursor within [start+minOffset, start+maxOffset]
func RandomWalkInRange(m Melody, minOffset, maxOffset, deviation int, r *rand.Rand) ([]music.Bar, error) {
	all, start, err := m.table()
	if err != nil {
		return nil, err
	}
	lo, hi := walkRange(start, minOffset, maxOffset, len(all))
	return m.walk(clamp(start, lo, hi), all, r, func(cur int) int {
		return clamp(cur+(r.Intn(3)-1)*deviation, lo, hi)
	}), nil
}

// RandomWalkInRangeAndMean pulls each step towards the middle of the range:
// the next cursor is drawn from [t, t+deviation] where t is halfway between
// the current cursor and the range midpoint
func RandomWalkInRangeAndMean(m Melody, minOffset, maxOffset, deviation int, r *rand.Rand) ([]music.Bar, error) {
	all, start, err := m.table()
	if err != nil {
		return nil, err
	}
	if deviation < 0 {
		deviation = 0
	}
	lo, hi := walkRange(start, minOffset, maxOffset, len(all))
	mid := (lo + hi) / 2
	return m.walk(clamp(start, lo, hi), all, r, func(cur int) int {
		target := (cur + mid) / 2
		return clamp(target+r.Intn(deviation+1), lo, hi)
	}), nil
}

func walkRange(start, minOffset, maxOffset, n int) (lo, hi int) {
	if minOffset > maxOffset {
		minOffset, maxOffset = maxOffset, minOffset
	}
	lo = clamp(start+minOffset, 0, n-1)
	hi = clamp(start+maxOffset, 0, n-1)
	return lo, hi
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
