package generate

import (
	"fmt"
	"math/rand"

	"generation-x/music"
)

// Kind discriminates generation-parameter records
type Kind string

const (
	KindRandom   Kind = "random"
	KindArpeggio Kind = "arpeggio"
)

// Value is either a fixed number (Low == High == 0) or a base with an
// inclusive random offset range
type Value struct {
	Base int `json:"base" yaml:"base"`
	Low  int `json:"low,omitempty" yaml:"low,omitempty"`
	High int `json:"high,omitempty" yaml:"high,omitempty"`
}

func Fixed(v int) Value {
	return Value{Base: v}
}

func Range(base, low, high int) Value {
	if low > high {
		low, high = high, low
	}
	return Value{Base: base, Low: low, High: high}
}

func (v Value) IsFixed() bool {
	return v.Low == 0 && v.High == 0
}

// Resolve draws the concrete value for one generation run
func (v Value) Resolve(r *rand.Rand) int {
	if v.IsFixed() {
		return v.Base
	}
	lo, hi := v.Low, v.High
	if lo > hi {
		lo, hi = hi, lo
	}
	return v.Base + lo + r.Intn(hi-lo+1)
}

func (v Value) String() string {
	if v.IsFixed() {
		return fmt.Sprintf("%d", v.Base)
	}
	return fmt.Sprintf("%d:%d.%d", v.Base, v.Low, v.High)
}

// Common holds the fields every record kind shares
type Common struct {
	Bars   Value
	Octave Value
	Tempo  Value
	Upper  int
	Lower  int
}

// ResolveMeter draws the tempo and pairs it with the fixed meter
func (c Common) ResolveMeter(r *rand.Rand) (music.TempoMeter, error) {
	return music.NewTempoMeter(float64(c.Tempo.Resolve(r)), c.Upper, c.Lower)
}

// Params is one channel's generation-parameter record
type Params interface {
	Kind() Kind
	Shared() Common
}

// RandomParams regenerates a random melody; Rest is a 0-100 probability
type RandomParams struct {
	Common
	Rest int
}

func (p RandomParams) Kind() Kind     { return KindRandom }
func (p RandomParams) Shared() Common { return p.Common }

// ArpeggioParams builds a fixed-stride arpeggio from StartNote
type ArpeggioParams struct {
	Common
	TotalNotes Value
	Mode       string
	StartNote  string
}

func (p ArpeggioParams) Kind() Kind     { return KindArpeggio }
func (p ArpeggioParams) Shared() Common { return p.Common }

// DefaultRandom mirrors the defaults of an "r" line with no fields
func DefaultRandom() RandomParams {
	return RandomParams{
		Common: Common{
			Bars:   Fixed(2),
			Octave: Fixed(4),
			Tempo:  Fixed(30),
			Upper:  4,
			Lower:  4,
		},
		Rest: 30,
	}
}

// DefaultArpeggio mirrors the defaults of an "a" line with no fields
func DefaultArpeggio() ArpeggioParams {
	return ArpeggioParams{
		Common: Common{
			Bars:   Fixed(2),
			Octave: Fixed(4),
			Tempo:  Fixed(30),
			Upper:  4,
			Lower:  4,
		},
		TotalNotes: Fixed(6),
		Mode:       "3th",
		StartNote:  "c",
	}
}
