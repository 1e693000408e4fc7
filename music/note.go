package music

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimedNote is a pitch or a rest (nil Pitch) held for Duration
type TimedNote struct {
	Pitch    *Pitch
	Duration time.Duration
}

func Rest(d time.Duration) TimedNote {
	return TimedNote{Duration: d}
}

func Note(p Pitch, d time.Duration) TimedNote {
	return TimedNote{Pitch: &p, Duration: d}
}

func (n TimedNote) IsRest() bool {
	return n.Pitch == nil
}

func (n TimedNote) String() string {
	if n.Pitch == nil {
		return "-"
	}
	return n.Pitch.FullName()
}

// Bar holds Upper notes of its meter
type Bar []TimedNote

// Sequence is one generator's output: the meter it was generated for and
// its bars. ID identifies one generation run.
type Sequence struct {
	ID    uuid.UUID
	Meter TempoMeter
	Bars  []Bar
}

// NewSequence stamps a fresh generation ID
func NewSequence(tm TempoMeter, bars []Bar) Sequence {
	return Sequence{ID: uuid.New(), Meter: tm, Bars: bars}
}

// FormatBars renders each bar as comma separated names, "-" for rests
func FormatBars(bars []Bar) []string {
	out := make([]string, 0, len(bars))
	for _, bar := range bars {
		names := make([]string, len(bar))
		for i, n := range bar {
			names[i] = n.String()
		}
		out = append(out, strings.Join(names, ","))
	}
	return out
}
