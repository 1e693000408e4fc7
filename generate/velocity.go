package generate

import "math/rand"

// Velocity is base + uniform deviation + accent on strong beats, capped at 127
type Velocity struct {
	Base         int
	MinDeviation int
	MaxDeviation int
	Accent       int
}

var DefaultVelocity = Velocity{
	Base:         64,
	MinDeviation: 0,
	MaxDeviation: 10,
	Accent:       30,
}

// Strong reports whether a 1-based position inside a bar of upper beats
// falls on an odd beat
func Strong(pos, upper int) bool {
	return pos >= 1 && pos <= upper && pos%2 == 1
}

// For returns the velocity of the note at 1-based position pos
func (v Velocity) For(pos, upper int, r *rand.Rand) uint8 {
	lo, hi := v.MinDeviation, v.MaxDeviation
	if lo > hi {
		lo, hi = hi, lo
	}
	val := v.Base + lo + r.Intn(hi-lo+1)
	if Strong(pos, upper) {
		val += v.Accent
	}
	if val > 127 {
		val = 127
	}
	if val < 0 {
		val = 0
	}
	return uint8(val)
}
