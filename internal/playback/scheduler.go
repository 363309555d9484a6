// Package playback schedules decoded agent speech for gapless sequential
// playback against a shared output clock, with immediate interruption.
package playback

import (
	"sync"

	"go.uber.org/zap"

	"github.com/echodiary/echodiary/internal/audio"
)

// Clock is the output device's monotonic clock, in seconds.
type Clock interface {
	Now() float64
}

// Handle references one scheduled buffer so it can be stopped early.
type Handle interface {
	Stop()
}

// Sink plays buffers at scheduled clock times. done is invoked exactly once,
// on natural completion or after Stop.
type Sink interface {
	Play(buf *audio.Buffer, startAt float64, done func()) (Handle, error)
	Close() error
}

// Scheduler assigns start times so buffers play back to back as long as they
// arrive faster than they finish. If the network stalls a gap is acceptable;
// no silence is injected.
type Scheduler struct {
	clock  Clock
	sink   Sink
	logger *zap.Logger

	mu        sync.Mutex
	nextStart float64
	active    map[int]Handle
	nextID    int
	closed    bool
}

// NewScheduler creates a scheduler over the given clock and sink.
func NewScheduler(clock Clock, sink Sink, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		sink:   sink,
		logger: logger,
		active: make(map[int]Handle),
	}
}

// Schedule queues buf to start at the later of the current clock time and the
// end of the previously scheduled buffer, then advances the schedule by the
// buffer's duration.
func (s *Scheduler) Schedule(buf *audio.Buffer) {
	if buf == nil || len(buf.Samples) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	now := s.clock.Now()
	if s.nextStart < now {
		s.nextStart = now
	}
	startAt := s.nextStart

	id := s.nextID
	s.nextID++

	handle, err := s.sink.Play(buf, startAt, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	})
	if err != nil {
		s.logger.Warn("Dropping audio buffer, sink refused playback", zap.Error(err))
		return
	}

	s.active[id] = handle
	s.nextStart = startAt + buf.Duration()
}

// Interrupt stops every scheduled buffer immediately, clears the active set,
// and resets the schedule to the current clock time.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	handles := make([]Handle, 0, len(s.active))
	for _, h := range s.active {
		handles = append(handles, h)
	}
	s.active = make(map[int]Handle)
	s.nextStart = s.clock.Now()
	s.mu.Unlock()

	// Stop outside the lock: sink done callbacks re-enter the scheduler.
	for _, h := range handles {
		h.Stop()
	}
}

// ActiveCount reports how many buffers are scheduled or playing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// NextStart exposes the current schedule head, in clock seconds.
func (s *Scheduler) NextStart() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Reset clears the schedule for a new session without closing the sink.
func (s *Scheduler) Reset() {
	s.Interrupt()
	s.mu.Lock()
	s.nextStart = s.clock.Now()
	s.mu.Unlock()
}

// Close interrupts playback and closes the sink. Safe to call while buffers
// are still active, and safe to call repeatedly.
func (s *Scheduler) Close() error {
	s.Interrupt()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.sink.Close()
}
