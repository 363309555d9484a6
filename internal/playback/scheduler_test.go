package playback

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/echodiary/echodiary/internal/audio"
)

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

type fakePlay struct {
	buf     *audio.Buffer
	startAt float64
	done    func()
	stopped bool
}

func (p *fakePlay) Stop() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.done()
}

type fakeSink struct {
	plays  []*fakePlay
	closed int
}

func (s *fakeSink) Play(buf *audio.Buffer, startAt float64, done func()) (Handle, error) {
	p := &fakePlay{buf: buf, startAt: startAt, done: done}
	s.plays = append(s.plays, p)
	return p, nil
}

func (s *fakeSink) Close() error {
	s.closed++
	return nil
}

func bufWithDuration(seconds float64) *audio.Buffer {
	n := int(seconds * 24000)
	return &audio.Buffer{Samples: make([]float32, n), SampleRate: 24000, Channels: 1}
}

func TestScheduleGapless(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink, zap.NewNop())

	durations := []float64{0.25, 0.5, 0.1, 1.0}
	for _, d := range durations {
		s.Schedule(bufWithDuration(d))
	}

	if len(sink.plays) != len(durations) {
		t.Fatalf("got %d scheduled plays, want %d", len(sink.plays), len(durations))
	}

	wantStart := 0.0
	for i, p := range sink.plays {
		if math.Abs(p.startAt-wantStart) > 1e-9 {
			t.Errorf("buffer %d start = %v, want %v", i, p.startAt, wantStart)
		}
		wantStart += durations[i]
	}
	if got := s.NextStart(); math.Abs(got-wantStart) > 1e-9 {
		t.Errorf("NextStart() = %v, want %v", got, wantStart)
	}
}

func TestScheduleCatchesUpToClock(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink, zap.NewNop())

	s.Schedule(bufWithDuration(0.2))

	// Network stall: the clock runs past the end of the scheduled audio.
	clock.now = 5.0
	s.Schedule(bufWithDuration(0.3))

	if got := sink.plays[1].startAt; got != 5.0 {
		t.Errorf("post-stall start = %v, want 5.0 (no padding)", got)
	}
}

func TestInterruptClearsActiveAndResetsClock(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink, zap.NewNop())

	for i := 0; i < 4; i++ {
		s.Schedule(bufWithDuration(0.5))
	}
	if got := s.ActiveCount(); got != 4 {
		t.Fatalf("ActiveCount() = %d, want 4", got)
	}

	clock.now = 0.7
	s.Interrupt()

	if got := s.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after interrupt = %d, want 0", got)
	}
	if got := s.NextStart(); got != 0.7 {
		t.Errorf("NextStart() after interrupt = %v, want current clock 0.7", got)
	}
	for i, p := range sink.plays {
		if !p.stopped {
			t.Errorf("buffer %d not stopped by interrupt", i)
		}
	}
}

func TestNaturalCompletionRemovesFromActiveSet(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink, zap.NewNop())

	s.Schedule(bufWithDuration(0.5))
	s.Schedule(bufWithDuration(0.5))

	sink.plays[0].done()
	if got := s.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1 after one completion", got)
	}
}

func TestCloseIsIdempotentAndSafeWhileActive(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink, zap.NewNop())

	s.Schedule(bufWithDuration(1.0))

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if sink.closed != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closed)
	}

	// Scheduling after close is a no-op.
	s.Schedule(bufWithDuration(0.5))
	if len(sink.plays) != 1 {
		t.Errorf("got %d plays after close, want 1", len(sink.plays))
	}
}
