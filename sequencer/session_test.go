package sequencer

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"generation-x/generate"
	"generation-x/midi"
	"generation-x/music"

	"github.com/google/uuid"
)

type sentNote struct {
	channel uint8
	pitch   music.Pitch
	dur     time.Duration
}

type fakeOutput struct {
	mu    sync.Mutex
	notes []sentNote
}

func (f *fakeOutput) SendNote(channel uint8, p music.Pitch, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, sentNote{channel, p, d})
	return nil
}

func (f *fakeOutput) sent() []sentNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentNote(nil), f.notes...)
}

type fakeFeedback struct {
	mu        sync.Mutex
	columns   map[int][]uint8
	mutes     map[int]bool
	transport []bool
	knob      []uint8
}

func newFakeFeedback() *fakeFeedback {
	return &fakeFeedback{columns: map[int][]uint8{}, mutes: map[int]bool{}}
}

func (f *fakeFeedback) RefreshColumn(col int, v []uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns[col] = append([]uint8(nil), v...)
	return nil
}

func (f *fakeFeedback) SetTransport(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transport = append(f.transport, on)
	return nil
}

func (f *fakeFeedback) SetMute(col int, audible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutes[col] = audible
	return nil
}

func (f *fakeFeedback) SetKnob(v uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.knob = append(f.knob, v)
	return nil
}

var cMajor = music.Scale{Tonic: 0, Type: music.Major}

// newTestSession builds a random channel and an arpeggio channel
func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeOutput, *fakeFeedback) {
	t.Helper()
	params := []generate.Params{generate.DefaultRandom(), generate.DefaultArpeggio()}
	r := rand.New(rand.NewSource(1))
	seqs, err := generate.Sequences(params, cMajor, r)
	if err != nil {
		t.Fatal(err)
	}
	out, fb := &fakeOutput{}, newFakeFeedback()
	s, err := NewSession(cMajor, params, seqs, out, fb, r, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s, out, fb
}

func TestKnobTempo(t *testing.T) {
	tests := []struct {
		original float64
		value    uint8
		want     float64
	}{
		{100, 127, 201},
		{100, 0, 0},
		{100, 63, 100},
		{30, 127, 60},
		{60, 95, 90},
	}
	for _, tt := range tests {
		if got := KnobTempo(tt.original, tt.value); got != tt.want {
			t.Errorf("KnobTempo(%v, %d) = %v, want %v", tt.original, tt.value, got, tt.want)
		}
	}
}

func TestHandlerKnobRetunesFromOriginal(t *testing.T) {
	s, _, fb := newTestSession(t)
	h := NewControlHandler(s)

	h.Handle(midi.ControlEvent{Control: midi.CCTempoKnob, Value: 127})
	h.Handle(midi.ControlEvent{Control: midi.CCTempoKnob, Value: 127})
	for _, tr := range s.Tracks() {
		if tr.Seq.Tempo() != 60 {
			t.Errorf("%s tempo %v, want 60", tr.Name, tr.Seq.Tempo())
		}
	}

	h.Handle(midi.ControlEvent{Control: midi.CCTempoKnob, Value: 0})
	for _, tr := range s.Tracks() {
		if tr.Seq.Tempo() != 0 {
			t.Errorf("%s tempo %v, want 0", tr.Name, tr.Seq.Tempo())
		}
	}
	if s.Knob() != 0 || len(fb.knob) != 3 {
		t.Errorf("knob=%d feedback=%v", s.Knob(), fb.knob)
	}
}

func TestHandlerTransport(t *testing.T) {
	s, _, fb := newTestSession(t)
	h := NewControlHandler(s)

	h.Handle(midi.ControlEvent{Control: midi.CCTransport, Value: 127})
	if !s.Playing() {
		t.Fatal("transport on did not start playback")
	}
	h.Handle(midi.ControlEvent{Control: midi.CCTransport, Value: 64})
	if !s.Playing() {
		t.Fatal("intermediate value changed transport")
	}
	h.Handle(midi.ControlEvent{Control: midi.CCTransport, Value: 0})
	if s.Playing() {
		t.Fatal("transport off did not stop playback")
	}
	if len(fb.transport) != 2 {
		t.Errorf("transport feedback %v", fb.transport)
	}
}

func TestHandlerMute(t *testing.T) {
	s, _, fb := newTestSession(t)
	h := NewControlHandler(s)

	if err := h.Handle(midi.ControlEvent{Control: midi.CCMuteFirst + 1, Value: 0}); err != nil {
		t.Fatal(err)
	}
	if !s.Muted(1) || s.Muted(0) {
		t.Errorf("muted = %v,%v", s.Muted(0), s.Muted(1))
	}
	if fb.mutes[1] {
		t.Error("mute LED should be off for a muted channel")
	}

	h.Handle(midi.ControlEvent{Control: midi.CCMuteFirst + 1, Value: 127})
	if s.Muted(1) || !fb.mutes[1] {
		t.Error("127 should make the channel audible")
	}

	if err := h.Handle(midi.ControlEvent{Control: midi.CCMuteFirst + 5, Value: 0}); err == nil {
		t.Error("mute on an unconfigured column should fail")
	}
}

func TestScaleStepCollapsesToBase(t *testing.T) {
	s, _, _ := newTestSession(t)
	h := NewControlHandler(s)

	h.Handle(midi.ControlEvent{Control: midi.CCScaleNext, Value: 127})
	q := s.QuantizeTarget()
	if q == nil || q.Tonic != 7 || q.Type != music.Major {
		t.Fatalf("next from c major = %v, want g major", q)
	}

	h.Handle(midi.ControlEvent{Control: midi.CCScaleNext, Value: 0})
	if q := s.QuantizeTarget(); q == nil || q.Tonic != 7 {
		t.Fatal("release should not step")
	}

	h.Handle(midi.ControlEvent{Control: midi.CCScalePrev, Value: 127})
	if q := s.QuantizeTarget(); q != nil {
		t.Fatalf("stepping back onto the base scale should clear quantize, got %v", q)
	}

	h.Handle(midi.ControlEvent{Control: midi.CCScalePrev, Value: 127})
	if q := s.QuantizeTarget(); q == nil || q.Tonic != 5 {
		t.Fatalf("prev from c major = %v, want f major", q)
	}
}

// boundBars reads what channel i's note source currently holds
func boundBars(s *Session, i int) []music.Bar {
	tr, _ := s.Track(i)
	src := tr.Seq.source.(*BarSource)
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.bars
}

func sequenceID(s *Session, i int) uuid.UUID {
	seq, _ := s.Sequence(i)
	return seq.ID
}

func TestRegenerate(t *testing.T) {
	s, _, _ := newTestSession(t)
	h := NewControlHandler(s)
	tr, _ := s.Track(0)
	before, _ := s.Sequence(0)
	tempo := tr.Seq.Tempo()

	if err := h.Handle(midi.ControlEvent{Control: midi.CCTriggerFirst, Value: 0}); err != nil {
		t.Fatal(err)
	}
	if sequenceID(s, 0) != before.ID {
		t.Fatal("release regenerated")
	}

	if err := h.Handle(midi.ControlEvent{Control: midi.CCTriggerFirst, Value: 127}); err != nil {
		t.Fatal(err)
	}
	after, _ := s.Sequence(0)
	if after.ID == before.ID {
		t.Fatal("sequence not regenerated")
	}
	if len(after.Bars) != 2 {
		t.Errorf("regenerated %d bars", len(after.Bars))
	}
	if tr.Seq.Tempo() != tempo {
		t.Error("regeneration changed the running tempo")
	}
	if !reflect.DeepEqual(boundBars(s, 0), after.Bars) {
		t.Error("sequencer is not playing the regenerated bars")
	}
	if reflect.DeepEqual(boundBars(s, 0), before.Bars) {
		t.Error("sequencer still holds the old bars")
	}
}

func TestRegenerateConcurrentKeepsSourceCurrent(t *testing.T) {
	for trial := 0; trial < 200; trial++ {
		s, _, _ := newTestSession(t)
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 5 {
					if err := s.Regenerate(0); err != nil {
						t.Error(err)
					}
				}
			}()
		}
		wg.Wait()

		seq, _ := s.Sequence(0)
		if !reflect.DeepEqual(boundBars(s, 0), seq.Bars) {
			t.Fatalf("trial %d: bound bars differ from the stored sequence", trial)
		}
	}
}

func TestRegenerateRejected(t *testing.T) {
	s, _, _ := newTestSession(t)
	before := sequenceID(s, 1)

	err := NewControlHandler(s).Handle(midi.ControlEvent{Control: midi.CCTriggerFirst + 1, Value: 127})
	if !errors.Is(err, ErrRegenerationRejected) {
		t.Errorf("arpeggio channel: %v", err)
	}
	if sequenceID(s, 1) != before {
		t.Error("rejected regeneration changed state")
	}

	for _, i := range []int{2, 5, -1} {
		if err := s.Regenerate(i); !errors.Is(err, ErrRegenerationRejected) {
			t.Errorf("channel %d: %v", i, err)
		}
	}
	if _, ok := s.Sequence(5); ok {
		t.Error("missing channel should have no sequence")
	}
}

func TestNudgeTempo(t *testing.T) {
	s, _, _ := newTestSession(t)
	tr, _ := s.Track(0)
	start := tr.Seq.Tempo()

	if err := s.NudgeTempo(0, true); err != nil {
		t.Fatal(err)
	}
	if tr.Seq.Tempo() != start+1 {
		t.Errorf("tempo = %v, want %v", tr.Seq.Tempo(), start+1)
	}
	s.NudgeTempo(0, false)
	s.NudgeTempo(0, false)
	if tr.Seq.Tempo() != start-1 {
		t.Errorf("tempo = %v, want %v", tr.Seq.Tempo(), start-1)
	}
	if tr.Seq.OriginalTempo() != start {
		t.Error("nudge moved the original tempo")
	}
	if err := s.NudgeTempo(9, true); err == nil {
		t.Error("out of range channel should fail")
	}
}

func TestPlayNoteQuantizesAndMutes(t *testing.T) {
	s, out, fb := newTestSession(t)
	s.NextScale() // g major

	f4, _ := music.PitchFromName("f", 4)
	f4.Velocity = 99
	s.playNote(0, music.Note(f4, time.Second))

	sent := out.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d notes", len(sent))
	}
	if got := sent[0].pitch.FullName(); got != "E4" {
		t.Errorf("quantized to %s, want E4", got)
	}
	if sent[0].channel != 0 || sent[0].dur != time.Second || sent[0].pitch.Velocity != 99 {
		t.Errorf("sent %+v", sent[0])
	}
	if col := fb.columns[0]; len(col) != HistoryDepth || col[0] != 99 {
		t.Errorf("column 0 = %v", col)
	}

	s.SetMuted(1, true)
	s.playNote(1, music.Note(f4, time.Second))
	if len(out.sent()) != 1 {
		t.Error("muted channel sent a note")
	}
	if fb.columns[1][0] != 99 {
		t.Error("muted channel should still record history")
	}

	s.playRest(0)
	if col := fb.columns[0]; col[0] != 0 || col[1] != 99 {
		t.Errorf("history after rest = %v", col)
	}
}

func TestSyncFeedback(t *testing.T) {
	s, _, fb := newTestSession(t)
	s.SetMuted(0, true)
	fb.transport = nil
	s.SyncFeedback()

	if len(fb.columns) != 2 {
		t.Errorf("refreshed %d columns", len(fb.columns))
	}
	if fb.mutes[0] || !fb.mutes[1] {
		t.Errorf("mutes %v", fb.mutes)
	}
	if len(fb.transport) != 1 || fb.transport[0] {
		t.Errorf("transport %v", fb.transport)
	}
	if fb.knob[len(fb.knob)-1] != midi.KnobCenter {
		t.Errorf("knob %v", fb.knob)
	}
}

func TestSessionPlaysConcurrently(t *testing.T) {
	fast := func(ctx context.Context, d time.Duration) bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Millisecond):
			return true
		}
	}
	s, out, _ := newTestSession(t, WithSleep(fast))
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	h := NewControlHandler(s)
	events := make(chan midi.ControlEvent, 8)
	go h.Run(ctx, events)
	events <- midi.ControlEvent{Control: midi.CCTransport, Value: 127}
	events <- midi.ControlEvent{Control: midi.CCTempoKnob, Value: 100}
	events <- midi.ControlEvent{Control: midi.CCTriggerFirst, Value: 127}

	deadline := time.After(5 * time.Second)
	for len(out.sent()) < 8 {
		select {
		case <-deadline:
			t.Fatalf("only %d notes sent", len(out.sent()))
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	s.Wait()

	v := s.Snapshot()
	if !v.Playing || len(v.Tracks) != 2 {
		t.Errorf("snapshot %+v", v)
	}
}

func TestNewSessionMismatch(t *testing.T) {
	_, err := NewSession(cMajor, []generate.Params{generate.DefaultRandom()}, nil, nil, nil, nil)
	if err == nil {
		t.Error("expected mismatch error")
	}
}
