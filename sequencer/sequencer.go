package sequencer

import (
	"context"
	"sync"
	"time"

	"generation-x/debug"
	"generation-x/music"
)

// idlePoll bounds how long a stopped or held channel waits before re-checking
const idlePoll = 10 * time.Millisecond

// SleepFunc waits for d and reports false if ctx ended first
type SleepFunc func(ctx context.Context, d time.Duration) bool

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Option configures a Sequencer
type Option func(*Sequencer)

// WithSleep replaces the timer-based wait (tests)
func WithSleep(fn SleepFunc) Option {
	return func(s *Sequencer) { s.sleep = fn }
}

// WithRests calls fn for every rest pulled while playing
func WithRests(fn func(music.TimedNote)) Option {
	return func(s *Sequencer) { s.onRest = fn }
}

// Sequencer is one channel's timing loop. It pulls a note per beat while
// play reports true and hands pitched notes to target.
type Sequencer struct {
	Name string

	source NoteSource
	target func(music.TimedNote)
	onRest func(music.TimedNote)
	play   func() bool
	sleep  SleepFunc

	mu            sync.RWMutex
	meter         music.TempoMeter
	originalTempo float64

	startOnce sync.Once
	done      chan struct{}
}

// New builds an idle Sequencer; call Start or Run to begin the loop
func New(name string, tm music.TempoMeter, source NoteSource, play func() bool, target func(music.TimedNote), opts ...Option) *Sequencer {
	s := &Sequencer{
		Name:          name,
		source:        source,
		target:        target,
		play:          play,
		sleep:         sleepCtx,
		meter:         tm,
		originalTempo: tm.Tempo,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the loop in its own goroutine. Later calls do nothing.
func (s *Sequencer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.Run(ctx)
	})
}

// Done is closed when the loop returns
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

// Run blocks until ctx is cancelled
func (s *Sequencer) Run(ctx context.Context) {
	defer close(s.done)
	debug.Log("seq", "%s started at %s (%v per note)", s.Name, s.Meter(), s.NoteDuration())
	for s.step(ctx) {
	}
	debug.Log("seq", "%s stopped", s.Name)
}

// step runs one iteration and reports whether to keep going
func (s *Sequencer) step(ctx context.Context) bool {
	d := s.NoteDuration()
	if d <= 0 {
		// tempo knob at zero holds the channel
		return s.sleep(ctx, idlePoll)
	}
	if !s.play() {
		return s.sleep(ctx, min(d, idlePoll))
	}

	if n, ok := s.source.Next(); ok {
		n.Duration = d
		switch {
		case !n.IsRest() && s.target != nil:
			s.target(n)
		case n.IsRest() && s.onRest != nil:
			s.onRest(n)
		}
	}

	// re-derive so a tempo change made while playing applies to this wait
	if next := s.NoteDuration(); next > 0 {
		d = next
	}
	return s.sleep(ctx, d)
}

func (s *Sequencer) Meter() music.TempoMeter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meter
}

func (s *Sequencer) Tempo() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meter.Tempo
}

// SetTempo takes effect on the loop's next wait
func (s *Sequencer) SetTempo(tempo float64) {
	s.mu.Lock()
	s.meter.Tempo = tempo
	s.mu.Unlock()
}

// OriginalTempo is the tempo the Sequencer was built with
func (s *Sequencer) OriginalTempo() float64 {
	return s.originalTempo
}

func (s *Sequencer) IncTempo() {
	s.mu.Lock()
	s.meter.Tempo++
	s.mu.Unlock()
}

// DecTempo lowers the tempo by one, never below zero
func (s *Sequencer) DecTempo() {
	s.mu.Lock()
	s.meter.Tempo = max(s.meter.Tempo-1, 0)
	s.mu.Unlock()
}

// NoteDuration is the current beat length derived from the live meter
func (s *Sequencer) NoteDuration() time.Duration {
	return s.Meter().NoteDuration()
}

// ReplaceBars hands new material to the note source
func (s *Sequencer) ReplaceBars(bars []music.Bar) {
	s.source.Replace(bars)
}
