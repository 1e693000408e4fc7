package sequencer

import (
	"sync"

	"generation-x/music"
)

// NoteSource is what a Sequencer pulls notes from
type NoteSource interface {
	Next() (music.TimedNote, bool)
	Replace(bars []music.Bar)
}

// BarSource cycles through a bar matrix forever.
// Replace keeps the cursor; a cursor left past the end of shorter material
// is clamped onto the last bar.
type BarSource struct {
	mu   sync.Mutex
	bars []music.Bar
	bar  int
	note int
}

func NewBarSource(bars []music.Bar) *BarSource {
	return &BarSource{bars: bars}
}

// Next returns the note under the cursor and advances it.
// Empty bars are skipped; false means there is nothing to play.
func (s *BarSource) Next() (music.TimedNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.bars) == 0 {
		return music.TimedNote{}, false
	}
	if s.bar >= len(s.bars) {
		s.bar, s.note = len(s.bars)-1, 0
	}

	for range len(s.bars) + 1 {
		bar := s.bars[s.bar]
		if s.note < len(bar) {
			n := bar[s.note]
			s.note++
			if s.note >= len(bar) {
				s.advance()
			}
			return n, true
		}
		s.advance()
	}
	return music.TimedNote{}, false
}

func (s *BarSource) advance() {
	s.note = 0
	s.bar = (s.bar + 1) % len(s.bars)
}

// Replace swaps the material under the lock so Next sees old or new, never a mix
func (s *BarSource) Replace(bars []music.Bar) {
	s.mu.Lock()
	s.bars = bars
	s.mu.Unlock()
}

// Position reports the cursor (bar, note) that the next call will read
func (s *BarSource) Position() (bar, note int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar, s.note
}

// Len is the number of bars currently loaded
func (s *BarSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bars)
}
