package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"generation-x/debug"
	"generation-x/generate"
	"generation-x/midi"
	"generation-x/music"

	"github.com/google/uuid"
)

var ErrRegenerationRejected = errors.New("regeneration rejected")

// Output is the performance device
type Output interface {
	SendNote(channel uint8, p music.Pitch, d time.Duration) error
}

// Feedback is the controller's visual surface
type Feedback interface {
	RefreshColumn(col int, velocities []uint8) error
	SetTransport(on bool) error
	SetMute(col int, audible bool) error
	SetKnob(value uint8) error
}

// Session is the state shared by every channel loop and the controller
// handler. A single mutex guards it; controller traffic is human paced.
type Session struct {
	mu       sync.RWMutex
	playing  bool
	base     music.Scale
	quantize *music.Scale
	knob     uint8
	tracks   []*Track
	rng      *rand.Rand

	out Output
	fb  Feedback

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewSession wires one Track and Sequencer per generated sequence.
// out and fb may be nil; sends then become no-ops.
func NewSession(base music.Scale, params []generate.Params, seqs []music.Sequence, out Output, fb Feedback, r *rand.Rand, opts ...Option) (*Session, error) {
	if len(params) != len(seqs) {
		return nil, fmt.Errorf("%d parameter records for %d sequences", len(params), len(seqs))
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Session{
		base:       base,
		knob:       midi.KnobCenter,
		rng:        r,
		out:        out,
		fb:         fb,
		UpdateChan: make(chan struct{}, 1),
	}

	for i, seq := range seqs {
		t := NewTrack(fmt.Sprintf("SEQ%d", i), uint8(i), params[i], seq)
		idx := i
		trackOpts := append([]Option{WithRests(func(music.TimedNote) { s.playRest(idx) })}, opts...)
		t.Seq = New(
			fmt.Sprintf("%s [%d]", t.Name, len(seq.Bars)),
			seq.Meter,
			NewBarSource(seq.Bars),
			s.Playing,
			func(n music.TimedNote) { s.playNote(idx, n) },
			trackOpts...,
		)
		s.tracks = append(s.tracks, t)
	}
	return s, nil
}

// Start launches every channel loop
func (s *Session) Start(ctx context.Context) {
	for _, t := range s.tracks {
		t.Seq.Start(ctx)
	}
}

// Wait blocks until every started loop has returned
func (s *Session) Wait() {
	for _, t := range s.tracks {
		<-t.Seq.Done()
	}
}

func (s *Session) Tracks() []*Track {
	return s.tracks
}

func (s *Session) Track(i int) (*Track, bool) {
	if i < 0 || i >= len(s.tracks) {
		return nil, false
	}
	return s.tracks[i], true
}

func (s *Session) Playing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}

func (s *Session) SetPlaying(on bool) {
	s.mu.Lock()
	s.playing = on
	s.mu.Unlock()

	debug.Log("session", "play=%v", on)
	if s.fb != nil {
		s.logErr("transport", s.fb.SetTransport(on))
	}
	s.notify()
}

func (s *Session) Muted(i int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.tracks) {
		return false
	}
	return s.tracks[i].muted
}

func (s *Session) SetMuted(i int, muted bool) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.tracks) {
		s.mu.Unlock()
		return fmt.Errorf("mute: channel %d out of range", i)
	}
	s.tracks[i].muted = muted
	s.mu.Unlock()

	debug.Log("session", "channel %d muted=%v", i, muted)
	if s.fb != nil {
		s.logErr("mute", s.fb.SetMute(i, !muted))
	}
	s.notify()
	return nil
}

// Sequence returns the material channel i is playing
func (s *Session) Sequence(i int) (music.Sequence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.tracks) {
		return music.Sequence{}, false
	}
	return s.tracks[i].sequence, true
}

// NudgeTempo moves one channel's tempo a single step up or down
func (s *Session) NudgeTempo(i int, up bool) error {
	t, ok := s.Track(i)
	if !ok {
		return fmt.Errorf("tempo: channel %d out of range", i)
	}
	if up {
		t.Seq.IncTempo()
	} else {
		t.Seq.DecTempo()
	}
	debug.Log("tempo", "%s nudged to %g", t.Seq.Name, t.Seq.Tempo())
	s.notify()
	return nil
}

func (s *Session) BaseScale() music.Scale {
	return s.base
}

// QuantizeTarget returns the active quantize scale, nil when off
func (s *Session) QuantizeTarget() *music.Scale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.quantize == nil {
		return nil
	}
	q := *s.quantize
	return &q
}

// PrevScale moves the quantize target one fifth counterclockwise
func (s *Session) PrevScale() *music.Scale {
	return s.stepScale(music.PrevInCircleOfFifths)
}

// NextScale moves the quantize target one fifth clockwise
func (s *Session) NextScale() *music.Scale {
	return s.stepScale(music.NextInCircleOfFifths)
}

// stepScale moves from the current target, or the base scale when none is
// set. Landing back on the base scale turns quantizing off.
func (s *Session) stepScale(step func(music.Scale) (music.Scale, error)) *music.Scale {
	s.mu.Lock()
	from := s.base
	if s.quantize != nil {
		from = *s.quantize
	}
	next, err := step(from)
	if err != nil {
		s.mu.Unlock()
		debug.Log("session", "scale step from %s: %v", from, err)
		return s.QuantizeTarget()
	}
	if next == s.base {
		s.quantize = nil
	} else {
		s.quantize = &next
	}
	s.mu.Unlock()

	debug.Log("session", "quantize %s -> %s", from, next)
	s.notify()
	return s.QuantizeTarget()
}

// KnobTempo maps an absolute knob position onto a tempo relative to
// original. 63 leaves it unchanged; each side spans 100%.
func KnobTempo(original float64, value uint8) float64 {
	offset := float64(int(value)-int(midi.KnobCenter)) * 100 / float64(midi.KnobCenter)
	return original + math.Trunc(offset*original/100)
}

// SetKnob retunes every channel from its own original tempo
func (s *Session) SetKnob(value uint8) {
	s.mu.Lock()
	s.knob = value
	s.mu.Unlock()

	for _, t := range s.tracks {
		tempo := KnobTempo(t.Seq.OriginalTempo(), value)
		t.Seq.SetTempo(tempo)
		debug.Log("tempo", "%s - %d -> %g | %g", t.Seq.Name, value, tempo, t.Seq.OriginalTempo())
	}
	if s.fb != nil {
		s.logErr("knob", s.fb.SetKnob(value))
	}
	s.notify()
}

func (s *Session) Knob() uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.knob
}

// Regenerate draws new material for a random channel and swaps it into the
// running Sequencer. Arpeggio channels and unknown indexes are rejected.
func (s *Session) Regenerate(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.tracks) {
		s.mu.Unlock()
		err := fmt.Errorf("%w: channel %d out of range", ErrRegenerationRejected, i)
		debug.Log("regen", "%v", err)
		return err
	}
	t := s.tracks[i]
	p, ok := t.Params.(generate.RandomParams)
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: channel %d is %s, not random", ErrRegenerationRejected, i, t.Kind())
		debug.Log("regen", "%v", err)
		return err
	}
	seq, err := generate.Generate(p, s.base, s.rng)
	if err != nil {
		s.mu.Unlock()
		debug.Log("regen", "channel %d: %v", i, err)
		return fmt.Errorf("regenerate channel %d: %w", i, err)
	}
	old := t.sequence
	t.sequence = seq
	// swapped under the session lock so the source always holds the newest material
	t.Seq.ReplaceBars(seq.Bars)
	s.mu.Unlock()

	debug.Log("regen", "regenerated %d: %v to %v", i+1, music.FormatBars(old.Bars), music.FormatBars(seq.Bars))
	s.notify()
	return nil
}

// playNote is the per-channel playback callback
func (s *Session) playNote(i int, n music.TimedNote) {
	s.mu.Lock()
	t := s.tracks[i]
	p := *n.Pitch
	if s.quantize != nil {
		if q, err := music.Quantize(p, *s.quantize, music.Down); err == nil {
			p = q
		}
	}
	muted := t.muted
	t.push(p.Velocity)
	t.last = &p
	hist := t.history
	s.mu.Unlock()

	if !muted && s.out != nil {
		s.logErr("send", s.out.SendNote(t.Channel, p, n.Duration))
	}
	debug.LogEvery(16, "play", "%s: %s %v muted=%v", t.Name, p.FullName(), n.Duration, muted)
	s.refresh(i, hist)
}

func (s *Session) playRest(i int) {
	s.mu.Lock()
	t := s.tracks[i]
	t.push(0)
	t.last = nil
	hist := t.history
	s.mu.Unlock()

	s.refresh(i, hist)
}

func (s *Session) refresh(i int, hist [HistoryDepth]uint8) {
	if s.fb != nil {
		s.logErr("refresh", s.fb.RefreshColumn(i, hist[:]))
	}
	s.notify()
}

// SyncFeedback redraws the whole controller from session state
func (s *Session) SyncFeedback() {
	if s.fb == nil {
		return
	}
	v := s.Snapshot()
	for i, t := range v.Tracks {
		s.logErr("refresh", s.fb.RefreshColumn(i, t.History[:]))
		s.logErr("mute", s.fb.SetMute(i, !t.Muted))
	}
	s.logErr("transport", s.fb.SetTransport(v.Playing))
	s.logErr("knob", s.fb.SetKnob(v.Knob))
}

func (s *Session) notify() {
	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
}

func (s *Session) logErr(op string, err error) {
	if err != nil {
		debug.Log("session", "%s: %v", op, err)
	}
}

// TrackView is a copy of one track's state
type TrackView struct {
	Name          string
	Kind          generate.Kind
	Channel       uint8
	Muted         bool
	Tempo         float64
	OriginalTempo float64
	Meter         music.TempoMeter
	Generation    uuid.UUID
	Bars          []string
	History       [HistoryDepth]uint8
	Last          string
}

// View is a copy of the session state for display
type View struct {
	Playing  bool
	Base     music.Scale
	Quantize *music.Scale
	Knob     uint8
	Tracks   []TrackView
}

func (s *Session) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Playing: s.playing,
		Base:    s.base,
		Knob:    s.knob,
		Tracks:  make([]TrackView, 0, len(s.tracks)),
	}
	if s.quantize != nil {
		q := *s.quantize
		v.Quantize = &q
	}
	for _, t := range s.tracks {
		tv := TrackView{
			Name:          t.Name,
			Kind:          t.Kind(),
			Channel:       t.Channel,
			Muted:         t.muted,
			Tempo:         t.Seq.Tempo(),
			OriginalTempo: t.Seq.OriginalTempo(),
			Meter:         t.Seq.Meter(),
			Generation:    t.sequence.ID,
			Bars:          music.FormatBars(t.sequence.Bars),
			History:       t.history,
			Last:          "-",
		}
		if t.last != nil {
			tv.Last = t.last.FullName()
		}
		v.Tracks = append(v.Tracks, tv)
	}
	return v
}
