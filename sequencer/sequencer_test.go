package sequencer

import (
	"context"
	"sync"
	"testing"
	"time"

	"generation-x/music"
)

func mustMeter(t *testing.T, tempo float64, upper, lower int) music.TempoMeter {
	t.Helper()
	tm, err := music.NewTempoMeter(tempo, upper, lower)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

func note(t *testing.T, name string, octave int, d time.Duration) music.TimedNote {
	t.Helper()
	p, err := music.PitchFromName(name, octave)
	if err != nil {
		t.Fatal(err)
	}
	return music.Note(p, d)
}

func names(notes []music.TimedNote) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.String()
	}
	return out
}

func TestBarSourceCycles(t *testing.T) {
	bars := []music.Bar{
		{note(t, "c", 4, 0), music.Rest(0)},
		{note(t, "e", 4, 0)},
	}
	src := NewBarSource(bars)
	var got []music.TimedNote
	for range 7 {
		n, ok := src.Next()
		if !ok {
			t.Fatal("source ran dry")
		}
		got = append(got, n)
	}
	want := []string{"C4", "-", "E4", "C4", "-", "E4", "C4"}
	for i, w := range want {
		if got[i].String() != w {
			t.Fatalf("got %v, want %v", names(got), want)
		}
	}
}

func TestBarSourceEmpty(t *testing.T) {
	if _, ok := NewBarSource(nil).Next(); ok {
		t.Error("empty source returned a note")
	}
	if _, ok := NewBarSource([]music.Bar{{}, {}}).Next(); ok {
		t.Error("source of empty bars returned a note")
	}
	src := NewBarSource([]music.Bar{{}, {note(t, "g", 3, 0)}})
	if n, ok := src.Next(); !ok || n.String() != "G3" {
		t.Errorf("empty bar not skipped: %v %v", n, ok)
	}
}

func TestBarSourceReplaceKeepsCursor(t *testing.T) {
	src := NewBarSource([]music.Bar{
		{note(t, "c", 4, 0), note(t, "d", 4, 0)},
		{note(t, "e", 4, 0), note(t, "f", 4, 0)},
	})
	src.Next()
	src.Next()
	src.Next()
	if b, n := src.Position(); b != 1 || n != 1 {
		t.Fatalf("position = %d,%d", b, n)
	}

	src.Replace([]music.Bar{
		{note(t, "a", 3, 0), note(t, "b", 3, 0)},
		{note(t, "a", 4, 0), note(t, "b", 4, 0)},
	})
	if n, _ := src.Next(); n.String() != "B4" {
		t.Errorf("after replace got %s, want B4", n)
	}
}

func TestBarSourceShrinkClamps(t *testing.T) {
	src := NewBarSource([]music.Bar{
		{note(t, "c", 4, 0)},
		{note(t, "d", 4, 0)},
		{note(t, "e", 4, 0)},
	})
	src.Next()
	src.Next()
	if b, _ := src.Position(); b != 2 {
		t.Fatalf("bar = %d", b)
	}

	src.Replace([]music.Bar{{note(t, "g", 4, 0), note(t, "a", 4, 0)}})
	if src.Len() != 1 {
		t.Fatalf("len = %d", src.Len())
	}
	n, ok := src.Next()
	if !ok || n.String() != "G4" {
		t.Errorf("after shrink got %v %v, want G4", n, ok)
	}
}

func TestBarSourceConcurrentReplace(t *testing.T) {
	a := []music.Bar{{note(t, "c", 4, 0), note(t, "c", 4, 0), note(t, "c", 4, 0)}}
	b := []music.Bar{{note(t, "d", 4, 0)}, {note(t, "d", 4, 0)}}
	src := NewBarSource(a)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			if i%2 == 0 {
				src.Replace(b)
			} else {
				src.Replace(a)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			n, ok := src.Next()
			if !ok {
				t.Error("source ran dry")
				return
			}
			if s := n.String(); s != "C4" && s != "D4" {
				t.Errorf("torn read %s", s)
				return
			}
		}
	}()
	wg.Wait()
}

// recorder collects sleeps and stops the loop after limit waits
type recorder struct {
	sleeps []time.Duration
	limit  int
	onWait func(n int)
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) bool {
	r.sleeps = append(r.sleeps, d)
	if r.onWait != nil {
		r.onWait(len(r.sleeps))
	}
	return len(r.sleeps) < r.limit
}

func TestSequencerLiveRetune(t *testing.T) {
	src := NewBarSource([]music.Bar{{note(t, "c", 4, 3*time.Second)}})
	var played []music.TimedNote
	rec := &recorder{limit: 3}

	seq := New("retune", mustMeter(t, 120, 4, 4), src,
		func() bool { return true },
		func(n music.TimedNote) { played = append(played, n) },
		WithSleep(rec.sleep),
	)
	rec.onWait = func(n int) {
		if n == 1 {
			seq.SetTempo(60)
		}
	}
	seq.Run(context.Background())

	want := []time.Duration{500 * time.Millisecond, time.Second, time.Second}
	for i, w := range want {
		if rec.sleeps[i] != w {
			t.Errorf("sleep %d = %v, want %v", i, rec.sleeps[i], w)
		}
		if played[i].Duration != w {
			t.Errorf("note %d stamped %v, want %v", i, played[i].Duration, w)
		}
	}
	select {
	case <-seq.Done():
	default:
		t.Error("Done not closed after Run returned")
	}
}

func TestSequencerPausedPolls(t *testing.T) {
	src := NewBarSource([]music.Bar{{note(t, "c", 4, 0)}})
	rec := &recorder{limit: 4}
	called := false
	seq := New("paused", mustMeter(t, 60, 4, 4), src,
		func() bool { return false },
		func(music.TimedNote) { called = true },
		WithSleep(rec.sleep),
	)
	seq.Run(context.Background())

	if called {
		t.Error("target called while paused")
	}
	for _, d := range rec.sleeps {
		if d != idlePoll {
			t.Errorf("paused sleep %v, want %v", d, idlePoll)
		}
	}
	if b, n := src.Position(); b != 0 || n != 0 {
		t.Error("paused loop consumed notes")
	}
}

func TestSequencerZeroTempoHolds(t *testing.T) {
	src := NewBarSource([]music.Bar{{note(t, "c", 4, 0)}})
	rec := &recorder{limit: 3}
	seq := New("held", mustMeter(t, 60, 4, 4), src,
		func() bool { return true },
		func(music.TimedNote) { t.Error("played at tempo 0") },
		WithSleep(rec.sleep),
	)
	seq.SetTempo(0)
	seq.Run(context.Background())
	for _, d := range rec.sleeps {
		if d != idlePoll {
			t.Errorf("held sleep %v", d)
		}
	}
}

func TestSequencerRests(t *testing.T) {
	src := NewBarSource([]music.Bar{{music.Rest(0), note(t, "a", 4, 0)}})
	rec := &recorder{limit: 4}
	var notes, rests int
	seq := New("rests", mustMeter(t, 120, 4, 4), src,
		func() bool { return true },
		func(music.TimedNote) { notes++ },
		WithSleep(rec.sleep),
		WithRests(func(n music.TimedNote) {
			if n.Duration != 500*time.Millisecond {
				t.Errorf("rest stamped %v", n.Duration)
			}
			rests++
		}),
	)
	seq.Run(context.Background())
	if notes != 2 || rests != 2 {
		t.Errorf("notes=%d rests=%d, want 2/2", notes, rests)
	}
}

func TestSequencerStartOnceAndCancel(t *testing.T) {
	src := NewBarSource([]music.Bar{{note(t, "c", 4, 0)}})
	ctx, cancel := context.WithCancel(context.Background())
	seq := New("cancel", mustMeter(t, 120, 4, 4), src, func() bool { return true }, nil)
	seq.Start(ctx)
	seq.Start(ctx)
	cancel()

	select {
	case <-seq.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}

func TestSequencerTempoHelpers(t *testing.T) {
	seq := New("tempo", mustMeter(t, 1, 4, 4), NewBarSource(nil), func() bool { return false }, nil)
	seq.IncTempo()
	if seq.Tempo() != 2 {
		t.Errorf("inc: %v", seq.Tempo())
	}
	seq.DecTempo()
	seq.DecTempo()
	seq.DecTempo()
	if seq.Tempo() != 0 {
		t.Errorf("dec floor: %v", seq.Tempo())
	}
	if seq.OriginalTempo() != 1 {
		t.Errorf("original changed: %v", seq.OriginalTempo())
	}
	if seq.NoteDuration() != 0 {
		t.Errorf("duration at tempo 0: %v", seq.NoteDuration())
	}
}
