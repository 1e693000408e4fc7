package music

import (
	"fmt"
	"math"
	"time"
)

// TempoMeter is a tempo in bpm plus a time signature.
// Upper is beats per bar, Lower is the note value of one beat.
type TempoMeter struct {
	Tempo float64 `json:"tempo" yaml:"tempo"`
	Upper int     `json:"upper" yaml:"upper"`
	Lower int     `json:"lower" yaml:"lower"`
}

// NewTempoMeter validates the meter before returning it
func NewTempoMeter(tempo float64, upper, lower int) (TempoMeter, error) {
	tm := TempoMeter{Tempo: tempo, Upper: upper, Lower: lower}
	if err := tm.Validate(); err != nil {
		return TempoMeter{}, err
	}
	return tm, nil
}

// ValidLower reports whether lower is one of 1, 2, 4, 8, 16
func ValidLower(lower int) bool {
	switch lower {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

func (tm TempoMeter) Validate() error {
	if !ValidLower(tm.Lower) {
		return fmt.Errorf("%w: lower meter %d", ErrInvalidMeter, tm.Lower)
	}
	if tm.Upper < 1 {
		return fmt.Errorf("%w: upper meter %d", ErrInvalidMeter, tm.Upper)
	}
	return nil
}

// NoteDuration is the length of one beat. Zero when tempo <= 0 or the
// meter is invalid.
func (tm TempoMeter) NoteDuration() time.Duration {
	if tm.Tempo <= 0 || !ValidLower(tm.Lower) {
		return 0
	}
	quarter := 60 / tm.Tempo
	secs := quarter * 4 / float64(tm.Lower)
	if math.IsInf(secs, 0) || secs*float64(time.Second) > math.MaxInt64 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// BarDuration is Upper beats
func (tm TempoMeter) BarDuration() time.Duration {
	return time.Duration(tm.Upper) * tm.NoteDuration()
}

func (tm TempoMeter) String() string {
	return fmt.Sprintf("%sbpm in %d/%d", trimFloat(tm.Tempo), tm.Upper, tm.Lower)
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", math.Round(f*100)/100)
}
